package syssonic_test

import (
	"testing"

	Sc "github.com/maroda/syssonic/metrics"
	St "github.com/maroda/syssonic/types"
)

func TestParseNvidiaCSV(t *testing.T) {
	t.Run("Parses a full reading", func(t *testing.T) {
		out := "45, 67, 2048, 8192, 150.25, 30\n"

		g, err := Sc.ParseNvidiaCSV(out)
		assertError(t, err, nil)

		if g.Vendor != St.GpuNvidia {
			t.Errorf("Expected the NVIDIA vendor tag, got %v", g.Vendor)
		}
		assertFloat(t, g.Utilization, 45.0)
		assertFloat(t, g.Temperature, 67.0)
		assertUint64(t, g.MemoryUsed, 2048*1024*1024)
		assertUint64(t, g.MemoryTotal, 8192*1024*1024)

		if g.PowerDraw == nil {
			t.Fatalf("Expected a power draw value")
		}
		assertFloat(t, *g.PowerDraw, 150.25)

		if g.FanSpeed == nil {
			t.Fatalf("Expected a fan speed value")
		}
		assertFloat(t, *g.FanSpeed, 30.0)
	})

	t.Run("Unsupported fields become nil", func(t *testing.T) {
		out := "45, 67, 2048, 8192, [N/A], [N/A]\n"

		g, err := Sc.ParseNvidiaCSV(out)
		assertError(t, err, nil)

		if g.PowerDraw != nil {
			t.Errorf("Expected nil power draw for [N/A], got %f", *g.PowerDraw)
		}
		if g.FanSpeed != nil {
			t.Errorf("Expected nil fan speed for [N/A], got %f", *g.FanSpeed)
		}
	})

	t.Run("Unparsable gauges fall back to neutral", func(t *testing.T) {
		out := "[N/A], [N/A], 1024, 4096\n"

		g, err := Sc.ParseNvidiaCSV(out)
		assertError(t, err, nil)

		assertFloat(t, g.Utilization, 0.0)
		assertFloat(t, g.Temperature, Sc.DefaultTemperature)
	})

	t.Run("Only the first GPU line is read", func(t *testing.T) {
		out := "10, 40, 1024, 4096\n90, 80, 2048, 8192\n"

		g, err := Sc.ParseNvidiaCSV(out)
		assertError(t, err, nil)

		assertFloat(t, g.Utilization, 10.0)
	})

	t.Run("Errors on a short line", func(t *testing.T) {
		_, err := Sc.ParseNvidiaCSV("45, 67\n")
		assertGotError(t, err)
	})

	t.Run("Errors on unparsable memory", func(t *testing.T) {
		_, err := Sc.ParseNvidiaCSV("45, 67, [N/A], 8192\n")
		assertGotError(t, err)
	})
}

func TestFindAmdCard(t *testing.T) {
	// Environment dependent, only the failure shape is portable
	amd, err := Sc.FindAmdCard()
	if err != nil && amd != nil {
		t.Errorf("Expected nil card on probe failure, got %v", amd)
	}
}
