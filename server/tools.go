package syssonic

import (
	"log/slog"
	"os"
	"strconv"
)

// FillEnvVar returns the value of a runtime Environment Variable
func FillEnvVar(ev string) string {
	// If the EnvVar doesn't exist return a default string
	value := os.Getenv(ev)
	if value == "" {
		value = "ENOENT"
	}
	return value
}

// FillEnvVarInt returns an integer Environment Variable.
// Unset or unparseable values fall back to /d/
func FillEnvVarInt(ev string, d int) int {
	value := os.Getenv(ev)
	if value == "" {
		return d
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("EnvVar is not an integer, using default",
			slog.String("EnvVar", ev),
			slog.String("Value", value))
		return d
	}
	return i
}

// FloatPrecise truncates a float to /p/ decimal places for display
func FloatPrecise(f float64, p int) float64 {
	ratio := 1.0
	for range p {
		ratio *= 10
	}
	return float64(int64(f*ratio)) / ratio
}
