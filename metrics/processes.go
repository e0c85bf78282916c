package syssonic

import (
	"log/slog"
	"sort"

	"github.com/shirou/gopsutil/v4/process"
	St "github.com/maroda/syssonic/types"
)

// TopProcessCount bounds the per-process fan-out.
const TopProcessCount = 5

// CollectTopProcesses returns the busiest processes by CPU plus the
// total process count. Idle processes (0.1% CPU or less) are skipped
// so the list holds things actually doing work.
func CollectTopProcesses() ([]St.Process, int) {
	procs, err := process.Processes()
	if err != nil {
		slog.Debug("process enumeration failed", slog.Any("Error", err))
		return nil, 0
	}

	var top []St.Process
	for _, p := range procs {
		cpu, err := p.CPUPercent()
		if err != nil || cpu <= 0.1 {
			continue
		}

		name, err := p.Name()
		if err != nil {
			name = "unknown"
		}

		var rss uint64
		if mi, err := p.MemoryInfo(); err == nil && mi != nil {
			rss = mi.RSS
		}

		top = append(top, St.Process{
			Name:        name,
			PID:         p.Pid,
			CPUPercent:  cpu,
			MemoryBytes: rss,
		})
	}

	sort.Slice(top, func(i, j int) bool {
		return top[i].CPUPercent > top[j].CPUPercent
	})
	if len(top) > TopProcessCount {
		top = top[:TopProcessCount]
	}

	return top, len(procs)
}
