package syssonic

/*

	GPU sensor domains.

	NVIDIA goes through the nvidia-smi CSV query interface,
	which works wherever the proprietary driver is installed.
	AMD reads the amdgpu sysfs files directly.

*/

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	St "github.com/maroda/syssonic/types"
)

const smiQueryTimeout = 2 * time.Second

// NvidiaSmi queries the first GPU through the nvidia-smi binary.
type NvidiaSmi struct {
	Bin string
}

func NewNvidiaSmi() *NvidiaSmi {
	return &NvidiaSmi{Bin: "nvidia-smi"}
}

// Read shells out for one CSV sample of the first GPU.
func (n *NvidiaSmi) Read() (*St.GpuReading, error) {
	ctx, cancel := context.WithTimeout(context.Background(), smiQueryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, n.Bin,
		"--query-gpu=utilization.gpu,temperature.gpu,memory.used,memory.total,power.draw,fan.speed",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi query: %w", err)
	}

	return ParseNvidiaCSV(string(out))
}

// ParseNvidiaCSV turns the first line of nvidia-smi CSV output into
// a reading. Memory fields are required, utilization and temperature
// fall back to neutral values, power and fan stay nil when the
// driver reports "[N/A]".
func ParseNvidiaCSV(out string) (*St.GpuReading, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	fields := strings.Split(line, ",")
	if len(fields) < 4 {
		return nil, fmt.Errorf("unexpected nvidia-smi output: %q", line)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	memUsed, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi memory.used %q: %w", fields[2], err)
	}
	memTotal, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi memory.total %q: %w", fields[3], err)
	}

	g := &St.GpuReading{
		Vendor:      St.GpuNvidia,
		Utilization: smiFloat(fields[0], 0),
		Temperature: smiFloat(fields[1], DefaultTemperature),
		MemoryUsed:  uint64(memUsed) * 1024 * 1024, // MiB on the wire
		MemoryTotal: uint64(memTotal) * 1024 * 1024,
	}

	if len(fields) > 4 {
		if p, err := strconv.ParseFloat(fields[4], 64); err == nil {
			g.PowerDraw = &p
		}
	}
	if len(fields) > 5 {
		if f, err := strconv.ParseFloat(fields[5], 64); err == nil {
			g.FanSpeed = &f
		}
	}

	return g, nil
}

func smiFloat(field string, fallback float64) float64 {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return fallback
	}
	return v
}

// AmdSysfs reads one amdgpu card through its sysfs device directory.
type AmdSysfs struct {
	Device string // /sys/class/drm/cardN/device
}

// FindAmdCard locates the first card exposing amdgpu busy stats.
// On platforms without this sysfs tree the glob matches nothing.
func FindAmdCard() (*AmdSysfs, error) {
	matches, err := filepath.Glob("/sys/class/drm/card*/device/gpu_busy_percent")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no amdgpu device found")
	}
	return &AmdSysfs{Device: filepath.Dir(matches[0])}, nil
}

// Read samples utilization, VRAM, and when exposed, temperature
// and power from the card's hwmon directory.
func (a *AmdSysfs) Read() (*St.GpuReading, error) {
	util, err := readSysfsUint(filepath.Join(a.Device, "gpu_busy_percent"))
	if err != nil {
		return nil, fmt.Errorf("amdgpu busy: %w", err)
	}
	used, err := readSysfsUint(filepath.Join(a.Device, "mem_info_vram_used"))
	if err != nil {
		return nil, fmt.Errorf("amdgpu vram used: %w", err)
	}
	total, err := readSysfsUint(filepath.Join(a.Device, "mem_info_vram_total"))
	if err != nil {
		return nil, fmt.Errorf("amdgpu vram total: %w", err)
	}

	g := &St.GpuReading{
		Vendor:      St.GpuAmd,
		Utilization: float64(util),
		Temperature: DefaultTemperature,
		MemoryUsed:  used,
		MemoryTotal: total,
	}

	// millidegrees
	if t, err := a.hwmonValue("temp1_input"); err == nil {
		g.Temperature = float64(t) / 1000.0
	}

	// microwatts
	if p, err := a.hwmonValue("power1_average"); err == nil {
		w := float64(p) / 1e6
		g.PowerDraw = &w
	}

	return g, nil
}

func (a *AmdSysfs) hwmonValue(name string) (uint64, error) {
	matches, err := filepath.Glob(filepath.Join(a.Device, "hwmon", "hwmon*", name))
	if err != nil || len(matches) == 0 {
		return 0, fmt.Errorf("no hwmon %s for %s", name, a.Device)
	}
	return readSysfsUint(matches[0])
}
