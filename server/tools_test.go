package syssonic

import (
	"math"
	"testing"
)

func TestFillEnvVar(t *testing.T) {
	t.Run("An unset EnvVar reads ENOENT", func(t *testing.T) {
		got := FillEnvVar("SYSSONIC_TEST_NEVER_SET")
		assertString(t, got, "ENOENT")
	})

	t.Run("A set EnvVar reads back", func(t *testing.T) {
		t.Setenv("SYSSONIC_TEST_STRING", "craque")

		got := FillEnvVar("SYSSONIC_TEST_STRING")
		assertString(t, got, "craque")
	})
}

func TestFillEnvVarInt(t *testing.T) {
	t.Run("An unset EnvVar falls back", func(t *testing.T) {
		got := FillEnvVarInt("SYSSONIC_TEST_NEVER_SET", 7)
		if got != 7 {
			t.Errorf("did not get correct value, got %d, want %d", got, 7)
		}
	})

	t.Run("A numeric EnvVar reads back", func(t *testing.T) {
		t.Setenv("SYSSONIC_TEST_INT", "42")

		got := FillEnvVarInt("SYSSONIC_TEST_INT", 7)
		if got != 42 {
			t.Errorf("did not get correct value, got %d, want %d", got, 42)
		}
	})

	t.Run("A non-numeric EnvVar falls back", func(t *testing.T) {
		t.Setenv("SYSSONIC_TEST_INT", "pretzel")

		got := FillEnvVarInt("SYSSONIC_TEST_INT", 7)
		if got != 7 {
			t.Errorf("did not get correct value, got %d, want %d", got, 7)
		}
	})
}

func TestFloatPrecise(t *testing.T) {
	tests := []struct {
		name  string
		give  float64
		depth int
		want  float64
	}{
		{"two places", 3.14159, 2, 3.14},
		{"already short", 2.0, 3, 2.0},
		{"truncates, never rounds", 1.999, 2, 1.99},
		{"zero places", 12.345, 0, 12.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FloatPrecise(tt.give, tt.depth)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("did not get correct value, got %g, want %g", got, tt.want)
			}
		})
	}
}

func assertString(t testing.TB, got, want string) {
	t.Helper()

	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
