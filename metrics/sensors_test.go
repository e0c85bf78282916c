package syssonic_test

import (
	"testing"

	Sc "github.com/maroda/syssonic/metrics"
)

func TestSensorHub_DisabledDomains(t *testing.T) {
	hub := Sc.NewSensorHub(false, false, false)

	t.Run("GPU reads as no data", func(t *testing.T) {
		if hub.GPU() != nil {
			t.Errorf("Expected nil GPU reading from a disabled domain")
		}
	})

	t.Run("Battery reads as no data", func(t *testing.T) {
		if hub.Battery() != nil {
			t.Errorf("Expected nil battery reading from a disabled domain")
		}
	})

	t.Run("Fans read as no data", func(t *testing.T) {
		if hub.Fans() != nil {
			t.Errorf("Expected nil fan readings from a disabled domain")
		}
	})

	t.Run("Disabled domains are never probed", func(t *testing.T) {
		hub.GPU()
		hub.Battery()
		hub.Fans()

		if hub.NvidiaState != Sc.DomainUninitialized {
			t.Errorf("NVIDIA domain was probed while disabled")
		}
		if hub.BattState != Sc.DomainUninitialized {
			t.Errorf("Battery domain was probed while disabled")
		}
		if hub.FanState != Sc.DomainUninitialized {
			t.Errorf("Fan domain was probed while disabled")
		}
	})
}

func TestSensorHub_NilHub(t *testing.T) {
	var hub *Sc.SensorHub

	if hub.GPU() != nil {
		t.Errorf("Expected nil GPU reading from a nil hub")
	}
	if hub.Battery() != nil {
		t.Errorf("Expected nil battery reading from a nil hub")
	}
	if hub.Fans() != nil {
		t.Errorf("Expected nil fan readings from a nil hub")
	}
}

func TestSensorHub_UnavailableDomainStaysDown(t *testing.T) {
	hub := Sc.NewSensorHub(true, true, true)
	hub.NvidiaState = Sc.DomainUnavailable
	hub.AmdState = Sc.DomainUnavailable
	hub.BattState = Sc.DomainUnavailable
	hub.FanState = Sc.DomainUnavailable

	t.Run("Reads return nothing", func(t *testing.T) {
		if hub.GPU() != nil {
			t.Errorf("Expected nil GPU reading from an unavailable domain")
		}
		if hub.Battery() != nil {
			t.Errorf("Expected nil battery reading from an unavailable domain")
		}
		if hub.Fans() != nil {
			t.Errorf("Expected nil fan readings from an unavailable domain")
		}
	})

	t.Run("Failed probes are not retried", func(t *testing.T) {
		hub.GPU()
		hub.GPU()

		if hub.NvidiaState != Sc.DomainUnavailable {
			t.Errorf("NVIDIA domain state changed after reads, got %v", hub.NvidiaState)
		}
		if hub.AmdState != Sc.DomainUnavailable {
			t.Errorf("AMD domain state changed after reads, got %v", hub.AmdState)
		}
	})
}

func TestNvidiaSmi_ReadMissingBinary(t *testing.T) {
	smi := &Sc.NvidiaSmi{Bin: "/nonexistent/nvidia-smi"}

	_, err := smi.Read()
	assertGotError(t, err)
}
