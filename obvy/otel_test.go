package syssonic_test

import (
	"context"
	"testing"

	So "github.com/maroda/syssonic/obvy"
)

func TestInitOTel(t *testing.T) {
	t.Run("No SYSSONIC_OTEL means a no-op shutdown", func(t *testing.T) {
		t.Setenv("SYSSONIC_OTEL", "")

		shutdown, err := So.InitOTel(context.Background())
		if err != nil {
			t.Fatalf("got error %q, wanted no tracing", err)
		}
		if shutdown == nil {
			t.Fatalf("Expected a shutdown func")
		}
		shutdown()
	})
}
