package syssonic

/*

	The SensorHub owns the optional telemetry domains:
	GPU (NVIDIA or AMD), battery, and fans.

	Each domain is probed exactly once, on first use.
	A failed probe disables the domain for the life of
	the process and later reads simply return nothing.

*/

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	St "github.com/maroda/syssonic/types"
)

// DomainState is the lifecycle of one optional sensor domain.
type DomainState int

const (
	DomainUninitialized DomainState = iota
	DomainProbing
	DomainAvailable
	DomainUnavailable
)

// SensorHub is constructed once and handed to the Collector.
// It is safe for concurrent readers, every probe and read holds MU.
type SensorHub struct {
	MU sync.Mutex

	NvidiaState DomainState
	AmdState    DomainState
	BattState   DomainState
	FanState    DomainState

	nvidia *NvidiaSmi
	amd    *AmdSysfs
	fans   *FanSysfs

	EnableGPU     bool
	EnableBattery bool
	EnableFans    bool
}

func NewSensorHub(gpu, batt, fans bool) *SensorHub {
	return &SensorHub{
		EnableGPU:     gpu,
		EnableBattery: batt,
		EnableFans:    fans,
	}
}

// GPU resolves one vendor-tagged reading with NVIDIA taking
// precedence over AMD. Both domains permanently disabled, or a
// read failure on the one that is alive, returns nil.
func (h *SensorHub) GPU() *St.GpuReading {
	if h == nil || !h.EnableGPU {
		return nil
	}

	h.MU.Lock()
	defer h.MU.Unlock()

	h.ensureNvidia()
	if h.NvidiaState == DomainAvailable {
		g, err := h.nvidia.Read()
		if err == nil {
			return g
		}
		slog.Debug("NVIDIA read failed this tick", slog.Any("Error", err))
	}

	h.ensureAmd()
	if h.AmdState == DomainAvailable {
		g, err := h.amd.Read()
		if err == nil {
			return g
		}
		slog.Debug("AMD read failed this tick", slog.Any("Error", err))
	}

	return nil
}

// Battery samples the first battery, or nil when the domain is out.
func (h *SensorHub) Battery() *St.Battery {
	if h == nil || !h.EnableBattery {
		return nil
	}

	h.MU.Lock()
	defer h.MU.Unlock()

	h.ensureBattery()
	if h.BattState != DomainAvailable {
		return nil
	}

	b, err := ReadBattery()
	if err != nil {
		slog.Debug("battery read failed this tick", slog.Any("Error", err))
		return nil
	}
	return b
}

// Fans returns the current tachometer readings, nil when the
// domain is unavailable or every fan failed to read.
func (h *SensorHub) Fans() []St.Fan {
	if h == nil || !h.EnableFans {
		return nil
	}

	h.MU.Lock()
	defer h.MU.Unlock()

	h.ensureFans()
	if h.FanState != DomainAvailable {
		return nil
	}

	return h.fans.Read()
}

func (h *SensorHub) ensureNvidia() {
	if h.NvidiaState != DomainUninitialized {
		return
	}
	h.NvidiaState = DomainProbing

	smi := NewNvidiaSmi()
	if _, err := smi.Read(); err != nil {
		slog.Info("NVIDIA GPU not available, domain disabled", slog.Any("Error", err))
		h.NvidiaState = DomainUnavailable
		return
	}

	h.nvidia = smi
	h.NvidiaState = DomainAvailable
	slog.Info("NVIDIA GPU monitoring initialized")
}

func (h *SensorHub) ensureAmd() {
	if h.AmdState != DomainUninitialized {
		return
	}
	h.AmdState = DomainProbing

	amd, err := FindAmdCard()
	if err != nil {
		slog.Info("AMD GPU not available, domain disabled", slog.Any("Error", err))
		h.AmdState = DomainUnavailable
		return
	}

	h.amd = amd
	h.AmdState = DomainAvailable
	slog.Info("AMD GPU monitoring initialized", slog.String("device", amd.Device))
}

func (h *SensorHub) ensureBattery() {
	if h.BattState != DomainUninitialized {
		return
	}
	h.BattState = DomainProbing

	if err := ProbeBattery(); err != nil {
		slog.Info("Battery not available, domain disabled", slog.Any("Error", err))
		h.BattState = DomainUnavailable
		return
	}

	h.BattState = DomainAvailable
	slog.Info("Battery monitoring initialized")
}

func (h *SensorHub) ensureFans() {
	if h.FanState != DomainUninitialized {
		return
	}
	h.FanState = DomainProbing

	fans, err := FindFans()
	if err != nil {
		slog.Info("Fan sensors not available, domain disabled", slog.Any("Error", err))
		h.FanState = DomainUnavailable
		return
	}

	h.fans = fans
	h.FanState = DomainAvailable
	slog.Info("Fan monitoring initialized", slog.Int("fans", len(fans.Inputs)))
}

// readSysfsUint reads a single unsigned number from a sysfs file.
func readSysfsUint(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
}
