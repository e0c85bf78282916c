package syssonic_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	So "github.com/maroda/syssonic/obvy"
)

func TestNewStatsInternal(t *testing.T) {
	stats := So.NewStatsInternal()

	if stats == nil || stats.Registry == nil {
		t.Fatalf("Expected an attached registry")
	}

	t.Run("Each instance owns its registry", func(t *testing.T) {
		// a shared registry would panic on the second MustRegister
		other := So.NewStatsInternal()
		if other.Registry == stats.Registry {
			t.Errorf("Expected separate registries")
		}
	})
}

func TestStatsInternal_Handler(t *testing.T) {
	stats := So.NewStatsInternal()

	stats.RecCycleTimer(0.5)
	stats.RecWWW("200", http.MethodGet)
	stats.RecWWWTimer(http.MethodGet, 0.01)
	stats.RecCommand("play")
	stats.RecExport("wav")

	request := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	response := httptest.NewRecorder()
	stats.Handler().ServeHTTP(response, request)

	assertStatus(t, response.Code, http.StatusOK)

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("got error %q, wanted a scrape", err)
	}

	scrape := string(body)
	for _, want := range []string{
		"syssonic_cycle_duration_seconds",
		"syssonic_http_requests_total",
		"syssonic_http_request_duration_seconds",
		"syssonic_playback_commands_total",
		"syssonic_exports_total",
		`kind="play"`,
		`format="wav"`,
		`method="GET"`,
	} {
		assertStringContains(t, scrape, want)
	}
}

func assertStatus(t testing.TB, got, want int) {
	t.Helper()

	if got != want {
		t.Errorf("did not get correct status, got %d, want %d", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()

	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}
