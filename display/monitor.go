package syssonic

import (
	"fmt"
	"io"

	St "github.com/maroda/syssonic/types"
)

// PrintCycle writes the metric-to-music mapping table for one cycle.
// This is the whole display for monitor mode, no audio is involved.
func PrintCycle(w io.Writer, m *St.SystemMetrics, p *St.MusicalParams) {
	fmt.Fprintf(w, "\n=== System Metrics -> Music Mapping ===\n")
	fmt.Fprintf(w, "CPU Usage:      %.1f%% -> Melody pitch (scale index)\n", m.CPUUsage)
	fmt.Fprintf(w, "Memory Usage:   %.1f%% -> Bass intensity: %.2f\n", m.MemoryUsage, p.BassVelocity)
	fmt.Fprintf(w, "Disk I/O:       %d KB/s -> Rhythm density: %.2f\n",
		(m.DiskReadBytes+m.DiskWriteBytes)/1024, p.RhythmDensity)
	fmt.Fprintf(w, "Network:        %d KB/s -> Tempo: %.1f BPM\n",
		(m.NetworkRxBytes+m.NetworkTxBytes)/1024, p.Tempo)
	fmt.Fprintf(w, "Temperature:    %.1fC -> Filter: %.0fHz, Reverb: %.0f%%\n",
		m.Temperature, p.FilterCutoff, p.ReverbMix*100)

	if m.GPU != nil {
		fmt.Fprintf(w, "GPU:            %.1f%% %.1fC -> Voice intensity: %.2f\n",
			m.GPU.Utilization, m.GPU.Temperature, p.GPUIntensity)
	}
	if m.Battery != nil {
		fmt.Fprintf(w, "Battery:        %.1f%% -> Volume mult: %.2f, Tonality: %.2f\n",
			m.Battery.ChargePercent, p.BatteryVolumeMult, p.BatteryTonality)
	}

	fmt.Fprintf(w, "Load Average:   %.2f %.2f %.2f -> Polyrhythm: %.2f, Voices: %d\n",
		m.LoadAvg1, m.LoadAvg5, m.LoadAvg15, p.PolyrhythmFactor, p.HarmonicVoices)
	fmt.Fprintf(w, "Processes:      %d -> Hi-hat density: %.2f\n",
		m.ProcessCount, p.HihatDensity)
	fmt.Fprintf(w, "Kick hits:      %v\n", p.KickHits)
	fmt.Fprintf(w, "Snare hits:     %v\n", p.SnareHits)
	fmt.Fprintf(w, "=====================================\n\n")
}
