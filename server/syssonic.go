package syssonic

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	Sa "github.com/maroda/syssonic/audio"
	Sm "github.com/maroda/syssonic/mapper"
	Sc "github.com/maroda/syssonic/metrics"
	So "github.com/maroda/syssonic/obvy"
	Sp "github.com/maroda/syssonic/plugin"
	St "github.com/maroda/syssonic/types"
)

// The Sonifier is the entire connected telemetry-to-audio machine.
// This is where it is configured which sensor domains are being used
// And where pointers to the most recent cycle data are held

type Sonic interface {
	CycleOnce(ctx context.Context, samples int, interval time.Duration, bars int) error
	ExportOnce(ctx context.Context, samples int, interval time.Duration, bars int, path string, format Sa.Format) error
	Snapshot() (*St.SystemMetrics, *St.MusicalParams)
	Close() error
}

type Sonifier struct {
	MU          sync.RWMutex
	Source      string // which loop produced the cycles (live, serve, export)
	Collector   *Sc.Collector
	Mapper      *Sm.Mapper
	Controller  *Sa.Controller
	History     Sp.HistoryAdapter // nil when history is off
	Stats       *So.StatsInternal
	LastMetrics *St.SystemMetrics
	LastParams  *St.MusicalParams
}

// NewSonifier wires the whole pipeline from one Config:
// sensors feed the Collector, the Mapper is tuned to the configured
// scale and tempo, and the Controller owns the selected engine.
// Each time the Sonifier is used it should have updated
// cycle data via LastMetrics and LastParams.
func NewSonifier(config *Config, source string) (*Sonifier, error) {
	engine, err := Sa.EngineLookup(config.Engine)
	if err != nil {
		slog.Error("Could not start audio engine", slog.Any("Error", err))
		return nil, err
	}

	hub := Sc.NewSensorHub(config.EnableGPU, config.EnableBattery, config.EnableFans)
	collector := Sc.NewCollector(hub)

	mapper := Sm.NewMapper()
	mapper.BaseTempo = config.BaseTempo
	mapper.Scale = Sm.ScaleByName(config.ScaleType)

	controller := Sa.NewController(engine)
	err = controller.Send(Sa.PlaybackCommand{Kind: Sa.CmdSetVolume, Level: config.Volume})
	if err != nil {
		return nil, err
	}

	// The history store is optional
	var history Sp.HistoryAdapter
	if config.HistoryPath != "" {
		history, err = Sp.HistoryLookup(config.HistoryStore, config.HistoryPath)
		if err != nil {
			slog.Error("Could not open history store", slog.Any("Error", err))
			if cerr := controller.Close(); cerr != nil {
				slog.Error("Could not close controller", slog.Any("Error", cerr))
			}
			return nil, err
		}
	}

	return &Sonifier{
		Source:     source,
		Collector:  collector,
		Mapper:     mapper,
		Controller: controller,
		History:    history,
		Stats:      So.NewStatsInternal(),
	}, nil
}

// measure runs the telemetry half of a cycle: one smoothed
// collection pushed through the mapper, with the result kept
// for snapshot readers and written to history.
func (s *Sonifier) measure(ctx context.Context, samples int, interval time.Duration) (*St.MusicalParams, error) {
	start := time.Now()

	m, err := s.Collector.CollectSmoothed(ctx, samples, interval)
	if err != nil {
		slog.Error("Could not collect telemetry", slog.Any("Error", err))
		return nil, err
	}

	p := s.Mapper.Map(m)

	s.MU.Lock()
	s.LastMetrics = m
	s.LastParams = p
	s.MU.Unlock()

	if s.History != nil {
		cycle := &St.CycleEvent{
			StartTime: start,
			Source:    s.Source,
			Metrics:   m,
			Params:    p,
		}
		// History is advisory, the cycle still plays on failure
		if err := s.History.WriteCycle(cycle); err != nil {
			slog.Error("Could not record cycle", slog.Any("Error", err))
		}
	}

	s.Stats.RecCycleTimer(time.Since(start).Seconds())

	return p, nil
}

// CycleOnce performs one full sonification cycle and queues playback
func (s *Sonifier) CycleOnce(ctx context.Context, samples int, interval time.Duration, bars int) error {
	p, err := s.measure(ctx, samples, interval)
	if err != nil {
		return err
	}

	cmd := Sa.PlaybackCommand{Kind: Sa.CmdPlay, Params: p, Bars: bars}
	if err := s.Controller.Send(cmd); err != nil {
		slog.Error("Could not send play command", slog.Any("Error", err))
		return err
	}
	s.Stats.RecCommand(cmd.Kind.String())

	slog.Debug("Cycle queued",
		slog.Float64("Tempo", p.Tempo),
		slog.Int("Bars", bars))

	return nil
}

// ExportOnce performs one cycle but renders to a file instead of playing
func (s *Sonifier) ExportOnce(ctx context.Context, samples int, interval time.Duration, bars int, path string, format Sa.Format) error {
	p, err := s.measure(ctx, samples, interval)
	if err != nil {
		return err
	}

	cmd := Sa.PlaybackCommand{
		Kind:   Sa.CmdExport,
		Params: p,
		Bars:   bars,
		Path:   path,
		Format: format,
	}
	if err := s.Controller.Send(cmd); err != nil {
		slog.Error("Could not send export command", slog.Any("Error", err))
		return err
	}
	s.Stats.RecCommand(cmd.Kind.String())
	s.Stats.RecExport(format.String())

	return nil
}

// Snapshot returns the most recent cycle's telemetry and parameters.
// Both are nil before the first completed cycle.
func (s *Sonifier) Snapshot() (*St.SystemMetrics, *St.MusicalParams) {
	s.MU.RLock()
	defer s.MU.RUnlock()
	return s.LastMetrics, s.LastParams
}

// Close tears down playback first so no cycle writes after the flush
func (s *Sonifier) Close() error {
	var errs []error

	if err := s.Controller.Close(); err != nil {
		slog.Error("Could not close controller", slog.Any("Error", err))
		errs = append(errs, err)
	}

	if s.History != nil {
		if err := s.History.Close(); err != nil {
			slog.Error("Could not close history store", slog.Any("Error", err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
