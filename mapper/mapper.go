package syssonic

/*

	The Mapper is a pure function from one snapshot to one set
	of musical parameters. There is no hidden state: mapping the
	same snapshot twice yields identical values, and every input
	is clamped before use so no combination of readings can
	produce an out-of-range parameter.

*/

import (
	"slices"

	St "github.com/maroda/syssonic/types"
)

// DefaultBaseTempo is the BPM with an idle network.
const DefaultBaseTempo = 90.0

// Fixed remap constants. Each "X reading to Y range" mapping is
// clamp((raw - offset) / span, 0, 1) scaled into its target.
const (
	fullDensityIO = 10_000_000.0 // 10MB/s of disk I/O is full rhythm density
	maxTempoNet   = 5_000_000.0  // 5MB/s of network traffic is max tempo
	tempoSwing    = 40.0         // BPM added at full network, 90-130 range

	tempFloor  = 30.0 // filter closed and dry here
	tempSpan   = 40.0 // fully open and wet at 70
	cutoffBase = 400.0
	cutoffSpan = 2600.0 // 400Hz - 3000Hz

	gpuTempFloor = 40.0 // chorus and flanger sweep over 40-80
	gpuTempSpan  = 40.0

	lowBass  = A2       // memory above 75, more ominous
	midBass  = A2 * 1.5 // memory above 50
	highBass = E3       // memory is comfortable
)

// Fan-out bounds.
const (
	MaxCorePatterns    = 4
	MaxProcessMelodies = 3
)

type Mapper struct {
	BaseTempo float64
	Scale     []float64
}

func NewMapper() *Mapper {
	return &Mapper{
		BaseTempo: DefaultBaseTempo,
		Scale:     MinorPentatonic,
	}
}

// Map derives the full musical parameter set from one snapshot.
func (mp *Mapper) Map(m *St.SystemMetrics) *St.MusicalParams {
	scale := mp.Scale
	if len(scale) == 0 {
		scale = MinorPentatonic
	}

	// CPU usage picks the melody pitch, a four-note contour
	// around the quantized scale index
	idx := ScaleIndex(m.CPUUsage, len(scale))
	melody := []float64{
		scale[idx],
		scale[max(idx-1, 0)],
		scale[min(idx+2, len(scale)-1)],
		scale[idx],
	}

	// Memory pressure picks the bass register, strictly
	// greater-than at both boundaries
	var bass float64
	switch {
	case m.MemoryUsage > 75.0:
		bass = lowBass
	case m.MemoryUsage > 50.0:
		bass = midBass
	default:
		bass = highBass
	}
	bassVelocity := Clamp(m.MemoryUsage/100.0, 0.3, 1.0)

	ioNorm := Clamp01(float64(m.DiskReadBytes+m.DiskWriteBytes) / fullDensityIO)
	netNorm := Clamp01(float64(m.NetworkRxBytes+m.NetworkTxBytes) / maxTempoNet)
	tempo := mp.BaseTempo + netNorm*tempoSwing

	tempNorm := Clamp01((m.Temperature - tempFloor) / tempSpan)
	cutoff := cutoffBase + tempNorm*cutoffSpan
	reverb := tempNorm * 0.5

	kicks, snares := RhythmPattern(m.DiskReadBytes, m.DiskWriteBytes, ioNorm)

	gpu := mapGPU(m.GPU)
	poly, voices := mapLoadAverage(m)
	volMult, tonality := mapBattery(m.Battery)

	return &St.MusicalParams{
		MelodyNotes:  melody,
		BassNote:     bass,
		BassVelocity: bassVelocity,

		RhythmDensity: ioNorm,
		Tempo:         tempo,
		KickHits:      kicks,
		SnareHits:     snares,

		FilterCutoff: cutoff,
		ReverbMix:    reverb,

		GPUNotes:       gpu.Notes,
		GPUIntensity:   gpu.Intensity,
		GPUChorusDepth: gpu.Chorus,
		GPUFlangerRate: gpu.Flanger,
		VramReverbSize: gpu.Vram,

		PolyrhythmFactor: poly,
		HarmonicVoices:   voices,

		SwapDistortion: mapSwap(m),

		BatteryVolumeMult: volMult,
		BatteryTonality:   tonality,

		CorePatterns:    MapCorePatterns(m.PerCoreUsage),
		HihatDensity:    Clamp01((float64(m.ProcessCount) - 50.0) / 250.0),
		ProcessMelodies: MapProcessMelodies(m.TopProcesses),

		FanNoiseLevel: mapFanSpeeds(m.FanSpeeds),
	}
}

// RhythmPattern builds the kick and snare hit sets for one bar of
// sixteen slots. Density thresholds are additive and strictly
// greater-than. More reads than writes earns an extra kick, more
// writes an extra snare, a tie earns neither. Both sets come back
// sorted and deduplicated.
func RhythmPattern(diskRead, diskWrite uint64, density float64) ([]int, []int) {
	kicks := []int{0, 4, 8, 12} // four on the floor
	snares := []int{4, 12}      // backbeat

	if density > 0.3 {
		kicks = append(kicks, 2, 10)
	}
	if density > 0.6 {
		snares = append(snares, 6, 14)
	}
	if density > 0.8 {
		kicks = append(kicks, 1, 3, 9, 11)
	}

	if diskRead > diskWrite {
		kicks = append(kicks, 15)
	} else if diskWrite > diskRead {
		snares = append(snares, 15)
	}

	slices.Sort(kicks)
	slices.Sort(snares)
	return slices.Compact(kicks), slices.Compact(snares)
}

// gpuVoice bundles the GPU-driven parameters.
type gpuVoice struct {
	Notes     []float64
	Intensity float64
	Chorus    float64
	Flanger   float64
	Vram      float64
}

// mapGPU maps an already vendor-resolved reading. A reading below
// idle noise (utilization under 0.1 with no VRAM in use) suppresses
// the voice entirely.
func mapGPU(g *St.GpuReading) gpuVoice {
	if g == nil || (g.Utilization < 0.1 && g.MemoryUsed == 0) {
		return gpuVoice{}
	}

	idx := ScaleIndex(g.Utilization, len(Dorian))
	notes := []float64{
		Dorian[idx],
		Dorian[min(idx+2, len(Dorian)-1)],
		Dorian[max(idx-1, 0)],
		Dorian[idx],
	}

	total := g.MemoryTotal
	if total == 0 {
		total = 1
	}

	gNorm := Clamp01((g.Temperature - gpuTempFloor) / gpuTempSpan)

	return gpuVoice{
		Notes:     notes,
		Intensity: Clamp01(g.Utilization / 100.0),
		Chorus:    gNorm * 0.3,        // up to 30% chorus depth
		Flanger:   0.5 + gNorm*2.5,    // 0.5-3.0 Hz
		Vram:      Clamp01(float64(g.MemoryUsed) / float64(total)),
	}
}

// mapLoadAverage reads the load trend. A 1-minute average running
// hot against the 15-minute average means rising load and more
// polyrhythm, the sustained 5-minute average sets the voice count.
func mapLoadAverage(m *St.SystemMetrics) (float64, int) {
	poly := Clamp01((m.LoadAvg1 - m.LoadAvg15) / 4.0)

	var voices int
	switch {
	case m.LoadAvg5 < 1.0:
		voices = 1
	case m.LoadAvg5 < 3.0:
		voices = 2
	case m.LoadAvg5 < 6.0:
		voices = 3
	default:
		voices = 4
	}

	return poly, voices
}

// mapSwap turns swap pressure into distortion: gentle under 20%,
// aggressive past it.
func mapSwap(m *St.SystemMetrics) float64 {
	if m.SwapTotal == 0 {
		return 0.0
	}

	pct := float64(m.SwapUsed) / float64(m.SwapTotal) * 100.0

	var d float64
	if pct < 20.0 {
		d = (pct / 20.0) * 0.2
	} else {
		d = 0.2 + ((pct-20.0)/80.0)*0.8
	}

	return Clamp01(d)
}

// mapBattery sets the volume multiplier and tonality bias. No
// battery means full volume and a neutral tonality.
func mapBattery(b *St.Battery) (float64, float64) {
	if b == nil {
		return 1.0, 0.0
	}

	mult := 0.5 + (b.ChargePercent/100.0)*0.5

	var tonality float64
	switch b.State {
	case St.BatteryCharging:
		tonality = 0.3
	case St.BatteryDischarging:
		if b.ChargePercent < 20.0 {
			tonality = -0.7
		} else {
			tonality = -0.3
		}
	case St.BatteryFull:
		tonality = 0.5
	case St.BatteryEmpty:
		tonality = -1.0
	default:
		tonality = 0.0
	}

	return mult, tonality
}

// MapCorePatterns gives each of the first four cores its own slot
// pattern, denser with load and offset by the core index.
func MapCorePatterns(perCore []float64) [][]int {
	if len(perCore) > MaxCorePatterns {
		perCore = perCore[:MaxCorePatterns]
	}

	patterns := make([][]int, 0, len(perCore))
	for coreIdx, usage := range perCore {
		norm := usage / 100.0
		offset := coreIdx % 4
		base := offset * 4

		var pattern []int
		switch {
		case norm < 0.2:
			pattern = []int{base}
		case norm < 0.5:
			pattern = []int{base, (base + 8) % 16}
		case norm < 0.8:
			pattern = []int{base, (base + 4) % 16, (base + 8) % 16, (base + 12) % 16}
		default:
			for i := 0; i < 16; i++ {
				if i%2 == offset%2 {
					pattern = append(pattern, i)
				}
			}
		}

		patterns = append(patterns, pattern)
	}

	return patterns
}

// MapProcessMelodies grants the three busiest processes a two-note
// phrase each, pitched by their CPU share.
func MapProcessMelodies(procs []St.Process) []St.ProcessMelody {
	if len(procs) > MaxProcessMelodies {
		procs = procs[:MaxProcessMelodies]
	}

	melodies := make([]St.ProcessMelody, 0, len(procs))
	for _, p := range procs {
		idx := ScaleIndex(p.CPUPercent, len(ProcessScale))
		melodies = append(melodies, St.ProcessMelody{
			Name: p.Name,
			Notes: []float64{
				ProcessScale[idx],
				ProcessScale[min(idx+2, len(ProcessScale)-1)],
			},
		})
	}

	return melodies
}

// mapFanSpeeds averages every fan and normalizes over the typical
// 500-3000 RPM range. No fan data reads as silence.
func mapFanSpeeds(fans []St.Fan) float64 {
	if len(fans) == 0 {
		return 0.0
	}

	var sum float64
	for _, f := range fans {
		sum += float64(f.RPM)
	}
	avg := sum / float64(len(fans))

	return Clamp01((avg - 500.0) / 2500.0)
}
