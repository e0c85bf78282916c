package syssonic

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	Sa "github.com/maroda/syssonic/audio"
	Ss "github.com/maroda/syssonic/server"
)

// Gap between the smoothing samples inside one cycle
const sampleInterval = 200 * time.Millisecond

// DefaultLiveBars is how many bars each cycle plays when unconfigured
const DefaultLiveBars = 4

type LiveSupervisor struct {
	Sonifier *Ss.Sonifier
	Interval time.Duration
	Samples  int
	Bars     int
	Count    int // 0 = run until stopped
	Ticker   *time.Ticker
	StopChan chan struct{}
	DoneChan chan struct{}
	WG       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewLiveSupervisor manages the cycle goroutine for live sonification.
// The Sonifier and the supervisor are strongly coupled, one knows about the other
func NewLiveSupervisor(s *Ss.Sonifier, interval time.Duration, samples, bars, count int) *LiveSupervisor {
	return &LiveSupervisor{
		Sonifier: s,
		Interval: interval,
		Samples:  samples,
		Bars:     bars,
		Count:    count,
	}
}

// Start the LiveSupervisor.
// The first cycle fires immediately, the ticker paces the rest.
func (p *LiveSupervisor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.StopChan = make(chan struct{})
	p.DoneChan = make(chan struct{})
	p.Ticker = time.NewTicker(p.Interval)

	p.WG.Add(1)
	go func() {
		defer p.WG.Done()
		defer p.Ticker.Stop()
		defer close(p.DoneChan)

		cycles := 0
		for {
			err := p.Sonifier.CycleOnce(ctx, p.Samples, sampleInterval, p.Bars)
			switch {
			case errors.Is(err, Sa.ErrControllerClosed), errors.Is(err, context.Canceled):
				return
			case err != nil:
				// Only log the error, keep going otherwise
				slog.Error("Failed to run cycle", slog.Any("Error", err))
			}

			cycles++
			if p.Count > 0 && cycles >= p.Count {
				slog.Info("Cycle count reached", slog.Int("Cycles", cycles))
				return
			}

			select {
			case <-p.Ticker.C:
			case <-p.StopChan:
				return
			}
		}
	}()
}

// Stop the LiveSupervisor
func (p *LiveSupervisor) Stop() {
	if p.StopChan != nil {
		close(p.StopChan)
		p.cancel()
		p.WG.Wait()
	}
}

// Restart the LiveSupervisor
func (p *LiveSupervisor) Restart() {
	p.Stop()
	p.Start()
}

// Wait blocks until a count-limited run finishes on its own
func (p *LiveSupervisor) Wait() {
	<-p.DoneChan
}
