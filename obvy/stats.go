package syssonic

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal is the prometheus registry for self-observation.
// It is attached to whatever surface is running and served at /metrics.
type StatsInternal struct {
	Registry    *prometheus.Registry
	CycleTimer  prometheus.Histogram
	WWWCount    *prometheus.CounterVec
	WWWTimer    *prometheus.HistogramVec
	CmdCount    *prometheus.CounterVec
	ExportCount *prometheus.CounterVec
}

// NewStatsInternal creates an attached prometheus registry
func NewStatsInternal() *StatsInternal {
	registry := prometheus.NewRegistry()

	cycleTimer := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "syssonic_cycle_duration_seconds",
		Help:    "Time spent collecting and mapping one sonification cycle",
		Buckets: prometheus.DefBuckets,
	})

	wwwCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syssonic_http_requests_total",
		Help: "HTTP requests served, by status code and method",
	}, []string{"status", "method"})

	wwwTimer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syssonic_http_request_duration_seconds",
		Help:    "HTTP request service time, by method",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	cmdCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syssonic_playback_commands_total",
		Help: "Playback commands queued, by kind",
	}, []string{"kind"})

	exportCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syssonic_exports_total",
		Help: "Export renders requested, by format",
	}, []string{"format"})

	registry.MustRegister(cycleTimer, wwwCount, wwwTimer, cmdCount, exportCount)

	return &StatsInternal{
		Registry:    registry,
		CycleTimer:  cycleTimer,
		WWWCount:    wwwCount,
		WWWTimer:    wwwTimer,
		CmdCount:    cmdCount,
		ExportCount: exportCount,
	}
}

// RecCycleTimer records the duration of one sonification cycle
func (s *StatsInternal) RecCycleTimer(seconds float64) {
	s.CycleTimer.Observe(seconds)
}

// RecWWW counts one served HTTP request
func (s *StatsInternal) RecWWW(status, method string) {
	s.WWWCount.WithLabelValues(status, method).Inc()
}

// RecWWWTimer records how long one HTTP request took
func (s *StatsInternal) RecWWWTimer(method string, seconds float64) {
	s.WWWTimer.WithLabelValues(method).Observe(seconds)
}

// RecCommand counts one queued playback command
func (s *StatsInternal) RecCommand(kind string) {
	s.CmdCount.WithLabelValues(kind).Inc()
}

// RecExport counts one requested export render
func (s *StatsInternal) RecExport(format string) {
	s.ExportCount.WithLabelValues(format).Inc()
}

// Handler serves this registry for scraping
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}
