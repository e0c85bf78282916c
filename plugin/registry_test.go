package plugin_test

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	Sp "github.com/maroda/syssonic/plugin"
	St "github.com/maroda/syssonic/types"
)

func TestHistoryLookup(t *testing.T) {
	t.Run("The jsonl store is registered", func(t *testing.T) {
		store, err := Sp.HistoryLookup("jsonl", filepath.Join(t.TempDir(), "history.jsonl"))
		assertError(t, err, nil)
		defer store.Close()

		assertString(t, store.Type(), "JSONL")
	})

	t.Run("The badger store is registered", func(t *testing.T) {
		store, err := Sp.HistoryLookup("badger", t.TempDir())
		assertError(t, err, nil)
		defer store.Close()

		assertString(t, store.Type(), "BadgerDB")
	})

	t.Run("An unknown store is refused by name", func(t *testing.T) {
		_, err := Sp.HistoryLookup("etcd", t.TempDir())
		assertGotError(t, err)
		assertStringContains(t, err.Error(), "unknown history store")
	})
}

// makeCycle builds a minimal finished cycle for storage tests.
func makeCycle(source string, at time.Time) *St.CycleEvent {
	return &St.CycleEvent{
		StartTime: at,
		Source:    source,
		Metrics: &St.SystemMetrics{
			CPUUsage:    42.0,
			MemoryUsage: 58.0,
			Temperature: 51.0,
		},
		Params: &St.MusicalParams{
			BassNote:          110.0,
			Tempo:             104.0,
			BatteryVolumeMult: 1.0,
		},
	}
}

func assertError(t testing.TB, got, want error) {
	t.Helper()

	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertGotError(t testing.TB, got error) {
	t.Helper()

	if got == nil {
		t.Errorf("Expected an error but got %q", got)
	}
}

func assertString(t testing.TB, got, want string) {
	t.Helper()

	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()

	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()

	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertFloat(t *testing.T, got, want float64) {
	t.Helper()

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("did not get correct value, got %g, want %g", got, want)
	}
}
