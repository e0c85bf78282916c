package types

/*

	These are the "immutable" core types of SysSonic,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here.
	Struct constructors are housed in their own packages.
	Methods taking these types should create local aliases,
	for example: type CycleEvents []St.CycleEvent

*/

import "time"

// SystemMetrics is one fully-reduced reading of all telemetry
// domains at a point in time. The Collector builds it once per
// tick and never mutates it afterward. Byte fields that end in
// "Bytes" are rates (bytes per second) derived from monotonic
// counters, not raw counter values.
type SystemMetrics struct {
	CPUUsage       float64 // 0-100
	MemoryUsage    float64 // 0-100
	DiskReadBytes  uint64  // bytes/sec
	DiskWriteBytes uint64  // bytes/sec
	NetworkRxBytes uint64  // bytes/sec
	NetworkTxBytes uint64  // bytes/sec
	Temperature    float64 // Celsius, defaults to 45 with no sensor

	GPU          *GpuReading // nil when no GPU domain is available
	Battery      *Battery    // nil on machines without a battery
	PerCoreUsage []float64   // 0-100 per core, core order
	LoadAvg1     float64
	LoadAvg5     float64
	LoadAvg15    float64
	SwapUsed     uint64 // bytes
	SwapTotal    uint64 // bytes
	ProcessCount int
	TopProcesses []Process // CPU descending, at most five
	FanSpeeds    []Fan     // nil when the fan domain is unavailable
}

// GpuVendor tags which driver path produced a GpuReading.
type GpuVendor int

const (
	GpuNone GpuVendor = iota
	GpuNvidia
	GpuAmd
)

// GpuReading is a vendor-tagged GPU sample.
// NVIDIA readings win over AMD when both paths are alive.
type GpuReading struct {
	Vendor      GpuVendor
	Utilization float64  // 0-100
	Temperature float64  // Celsius
	MemoryUsed  uint64   // bytes
	MemoryTotal uint64   // bytes
	PowerDraw   *float64 // watts, nil when the driver does not report it
	FanSpeed    *float64 // percent, nil when the driver does not report it
}

// BatteryState mirrors the charge direction reported by the OS.
type BatteryState int

const (
	BatteryUnknown BatteryState = iota
	BatteryCharging
	BatteryDischarging
	BatteryFull
	BatteryEmpty
)

// Battery is the power-supply sample for the first battery found.
type Battery struct {
	ChargePercent float64 // 0-100
	State         BatteryState
	PowerRate     float64        // watts, sign follows State
	Temperature   *float64       // Celsius, rarely reported
	TimeToFull    *time.Duration // only meaningful while charging
	TimeToEmpty   *time.Duration // only meaningful while discharging
}

// Process is one entry of the top-by-CPU process list.
type Process struct {
	Name        string
	PID         int32
	CPUPercent  float64
	MemoryBytes uint64
}

// Fan is a single fan tachometer reading.
type Fan struct {
	Label string
	RPM   int
}

// MusicalParams is the full set of musical control values derived
// from exactly one SystemMetrics. For a fixed snapshot the mapping
// is referentially transparent, so two MusicalParams built from the
// same snapshot compare equal field for field.
type MusicalParams struct {
	// CPU melody and memory bass
	MelodyNotes  []float64 // four-note contour, Hz
	BassNote     float64   // Hz
	BassVelocity float64   // 0.3-1.0

	// Disk and network
	RhythmDensity float64 // 0-1
	Tempo         float64 // BPM
	KickHits      []int   // sixteenth slots, sorted, deduplicated
	SnareHits     []int   // sixteenth slots, sorted, deduplicated

	// Temperature
	FilterCutoff float64 // Hz
	ReverbMix    float64 // 0-1

	// GPU voice, nil GPUNotes means the voice is suppressed
	GPUNotes       []float64
	GPUIntensity   float64 // 0-1
	GPUChorusDepth float64 // 0-1
	GPUFlangerRate float64 // Hz
	VramReverbSize float64 // 0-1

	// Load average
	PolyrhythmFactor float64 // 0-1
	HarmonicVoices   int     // 1-4

	// Swap pressure
	SwapDistortion float64 // 0-1

	// Battery dynamics
	BatteryVolumeMult float64 // 0.5-1.0, 1.0 without a battery
	BatteryTonality   float64 // -1 (minor) to 1 (major)

	// Per-core and per-process fan-out
	CorePatterns    [][]int // at most four patterns of sixteenth slots
	HihatDensity    float64 // 0-1, driven by process count
	ProcessMelodies []ProcessMelody

	// Fans
	FanNoiseLevel float64 // 0-1
}

// ProcessMelody is a two-note phrase for one busy process.
type ProcessMelody struct {
	Name  string
	Notes []float64 // Hz
}

// CycleEvent records one sonification cycle for the history store:
// the snapshot that was measured and the parameters it mapped to.
type CycleEvent struct {
	StartTime time.Time // This is a Primary Key
	Source    string    // which loop produced the cycle (live, serve, export)
	Metrics   *SystemMetrics
	Params    *MusicalParams
}
