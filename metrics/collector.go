package syssonic

/*

	The Collector is the telemetry sampler.

	Collect() reduces every domain to one immutable snapshot.
	CollectSmoothed() takes several snapshots and folds them
	into a single stable one.

	A Collector is single-writer: callers that want concurrent
	sampling need separate instances or their own locking.

*/

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"

	St "github.com/maroda/syssonic/types"
)

// DefaultTemperature stands in when no sensor reports anything,
// so downstream mapping always has a defined input.
const DefaultTemperature = 45.0

// Counter names for the RateTracker.
const (
	counterDiskRead  = "disk_read"
	counterDiskWrite = "disk_write"
	counterNetRx     = "net_rx"
	counterNetTx     = "net_tx"
)

type Collector struct {
	Hub   *SensorHub
	Rates *RateTracker
}

func NewCollector(hub *SensorHub) *Collector {
	return &Collector{
		Hub:   hub,
		Rates: NewRateTracker(),
	}
}

// Collect samples every telemetry domain once. Sensor failures are
// absorbed: a broken domain leaves its field at the neutral default
// or absent, it never turns into an error for the caller.
func (c *Collector) Collect() *St.SystemMetrics {
	now := time.Now()

	m := &St.SystemMetrics{Temperature: DefaultTemperature}

	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		m.CPUUsage = pcts[0]
	} else if err != nil {
		slog.Debug("cpu sample failed", slog.Any("Error", err))
	}

	if cores, err := cpu.Percent(0, true); err == nil {
		m.PerCoreUsage = cores
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		m.MemoryUsage = vm.UsedPercent
	} else {
		slog.Debug("memory sample failed", slog.Any("Error", err))
	}

	if sw, err := mem.SwapMemory(); err == nil {
		m.SwapUsed = sw.Used
		m.SwapTotal = sw.Total
	}

	if la, err := load.Avg(); err == nil {
		m.LoadAvg1 = la.Load1
		m.LoadAvg5 = la.Load5
		m.LoadAvg15 = la.Load15
	}

	if counters, err := disk.IOCounters(); err == nil {
		var read, write uint64
		for _, io := range counters {
			read += io.ReadBytes
			write += io.WriteBytes
		}
		m.DiskReadBytes = c.Rates.Rate(counterDiskRead, read, now)
		m.DiskWriteBytes = c.Rates.Rate(counterDiskWrite, write, now)
	} else {
		slog.Debug("disk counters failed", slog.Any("Error", err))
	}

	if counters, err := psnet.IOCounters(false); err == nil && len(counters) > 0 {
		m.NetworkRxBytes = c.Rates.Rate(counterNetRx, counters[0].BytesRecv, now)
		m.NetworkTxBytes = c.Rates.Rate(counterNetTx, counters[0].BytesSent, now)
	}

	if t, ok := readTemperature(); ok {
		m.Temperature = t
	}

	m.TopProcesses, m.ProcessCount = CollectTopProcesses()

	if c.Hub != nil {
		m.GPU = c.Hub.GPU()
		m.Battery = c.Hub.Battery()
		m.FanSpeeds = c.Hub.Fans()
	}

	return m
}

// CollectSmoothed takes several raw samples spaced an interval apart
// and reduces them to one snapshot. Gauges (cpu, memory, temperature)
// are averaged. Burst rates (disk, network) keep their maximum, a
// mean would erase exactly the transients worth hearing. Optional
// domains and the process list come from the last sample.
func (c *Collector) CollectSmoothed(ctx context.Context, samples int, interval time.Duration) (*St.SystemMetrics, error) {
	if samples < 1 {
		samples = 1
	}

	acc := make([]*St.SystemMetrics, 0, samples)
	for i := 0; i < samples; i++ {
		acc = append(acc, c.Collect())

		if i < samples-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
		}
	}

	return SmoothSamples(acc), nil
}

// SmoothSamples folds raw samples into one snapshot using the
// per-metric aggregation policy. The last sample is the base, so
// everything without a policy of its own carries over from it.
func SmoothSamples(acc []*St.SystemMetrics) *St.SystemMetrics {
	if len(acc) == 0 {
		return &St.SystemMetrics{Temperature: DefaultTemperature}
	}

	sm := *acc[len(acc)-1]

	var cpuSum, memSum, tempSum float64
	var diskRead, diskWrite, netRx, netTx uint64
	for _, s := range acc {
		cpuSum += s.CPUUsage
		memSum += s.MemoryUsage
		tempSum += s.Temperature

		diskRead = max(diskRead, s.DiskReadBytes)
		diskWrite = max(diskWrite, s.DiskWriteBytes)
		netRx = max(netRx, s.NetworkRxBytes)
		netTx = max(netTx, s.NetworkTxBytes)
	}

	n := float64(len(acc))
	sm.CPUUsage = cpuSum / n
	sm.MemoryUsage = memSum / n
	sm.Temperature = tempSum / n
	sm.DiskReadBytes = diskRead
	sm.DiskWriteBytes = diskWrite
	sm.NetworkRxBytes = netRx
	sm.NetworkTxBytes = netTx

	return &sm
}

// readTemperature averages every sensor reporting a plausible value.
func readTemperature() (float64, bool) {
	stats, err := sensors.SensorsTemperatures()
	if err != nil && len(stats) == 0 {
		return 0, false
	}

	var sum float64
	var n int
	for _, s := range stats {
		if s.Temperature <= 0 {
			continue
		}
		sum += s.Temperature
		n++
	}
	if n == 0 {
		return 0, false
	}

	return sum / float64(n), true
}
