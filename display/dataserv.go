package syssonic

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	Sa "github.com/maroda/syssonic/audio"
	Ss "github.com/maroda/syssonic/server"
	St "github.com/maroda/syssonic/types"
)

/*

	The View is the read side of a running Sonifier.
	It serves JSON for UIs, prometheus for scraping,
	and a websocket for continuous status delivery.

*/

type View struct {
	Sonifier   *Ss.Sonifier
	Supervisor *LiveSupervisor
	server     *http.Server
}

// NewView wraps a Sonifier for data serving
func NewView(s *Ss.Sonifier) (*View, error) {
	if s == nil {
		slog.Error("Could not get a Sonifier for display")
		return nil, errors.New("sonifier not found")
	}
	return &View{Sonifier: s}, nil
}

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket for continuous status push
// - Version for programmatic use
// - Snapshot, Params, Status, Events, History for UI feedback
// - Command for driving playback
func (v *View) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Sonifier.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)
	api.HandleFunc("/version", v.VersionHandler).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", v.SnapshotHandler).Methods(http.MethodGet)
	api.HandleFunc("/params", v.ParamsHandler).Methods(http.MethodGet)
	api.HandleFunc("/status", v.StatusHandler).Methods(http.MethodGet)
	api.HandleFunc("/events", v.EventsHandler).Methods(http.MethodGet)
	api.HandleFunc("/history", v.HistoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/command", v.CommandHandler).Methods(http.MethodPost)

	return r
}

// StartDataServ blocks serving the mux until Shutdown
func (v *View) StartDataServ(addr string) error {
	v.server = &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(v.SetupMux(), "syssonic-http"),
	}

	slog.Info("Data surface listening", slog.String("Addr", addr))
	err := v.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Data surface failed", slog.Any("Error", err))
		return err
	}
	return nil
}

// StopServing drains in-flight requests and unblocks StartDataServ.
// The supervisor and sonifier belong to whoever built them.
func (v *View) StopServing(ctx context.Context) error {
	if v.server == nil {
		return nil
	}
	return v.server.Shutdown(ctx)
}

var Version = "dev"

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"version": Version,
		"os":      Ss.OSRelease(),
		"engines": strings.Join(Sa.EngineNames(), ","),
	})
}

// SnapshotData is the wire form of the latest telemetry reading
type SnapshotData struct {
	CPUPercent     float64  `json:"cpuPercent"`
	MemPercent     float64  `json:"memPercent"`
	DiskReadBps    uint64   `json:"diskReadBps"`
	DiskWriteBps   uint64   `json:"diskWriteBps"`
	NetRxBps       uint64   `json:"netRxBps"`
	NetTxBps       uint64   `json:"netTxBps"`
	TempC          float64  `json:"tempC"`
	GPUPercent     *float64 `json:"gpuPercent,omitempty"`
	GPUTempC       *float64 `json:"gpuTempC,omitempty"`
	BatteryPercent *float64 `json:"batteryPercent,omitempty"`
	LoadAvg1       float64  `json:"loadAvg1"`
	SwapPercent    float64  `json:"swapPercent"`
	ProcessCount   int      `json:"processCount"`
	TopProcess     string   `json:"topProcess,omitempty"`
	FanRPM         int      `json:"fanRpm,omitempty"`
}

func buildSnapshotData(m *St.SystemMetrics) SnapshotData {
	sd := SnapshotData{
		CPUPercent:   Ss.FloatPrecise(m.CPUUsage, 2),
		MemPercent:   Ss.FloatPrecise(m.MemoryUsage, 2),
		DiskReadBps:  m.DiskReadBytes,
		DiskWriteBps: m.DiskWriteBytes,
		NetRxBps:     m.NetworkRxBytes,
		NetTxBps:     m.NetworkTxBytes,
		TempC:        Ss.FloatPrecise(m.Temperature, 1),
		LoadAvg1:     Ss.FloatPrecise(m.LoadAvg1, 2),
		ProcessCount: m.ProcessCount,
	}

	if m.GPU != nil {
		util := Ss.FloatPrecise(m.GPU.Utilization, 2)
		temp := Ss.FloatPrecise(m.GPU.Temperature, 1)
		sd.GPUPercent = &util
		sd.GPUTempC = &temp
	}
	if m.Battery != nil {
		charge := Ss.FloatPrecise(m.Battery.ChargePercent, 2)
		sd.BatteryPercent = &charge
	}
	if m.SwapTotal > 0 {
		sd.SwapPercent = Ss.FloatPrecise(float64(m.SwapUsed)/float64(m.SwapTotal)*100, 2)
	}
	if len(m.TopProcesses) > 0 {
		sd.TopProcess = m.TopProcesses[0].Name
	}
	for _, fan := range m.FanSpeeds {
		if fan.RPM > sd.FanRPM {
			sd.FanRPM = fan.RPM
		}
	}

	return sd
}

func (v *View) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	m, _ := v.Sonifier.Snapshot()
	if m == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sd := buildSnapshotData(m)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sd)
}

// ParamsData is the wire form of the latest musical mapping
type ParamsData struct {
	Tempo             float64             `json:"tempo"`
	MelodyNotes       []float64           `json:"melodyNotes"`
	BassNote          float64             `json:"bassNote"`
	BassVelocity      float64             `json:"bassVelocity"`
	RhythmDensity     float64             `json:"rhythmDensity"`
	KickHits          []int               `json:"kickHits"`
	SnareHits         []int               `json:"snareHits"`
	FilterCutoff      float64             `json:"filterCutoff"`
	ReverbMix         float64             `json:"reverbMix"`
	GPUNotes          []float64           `json:"gpuNotes,omitempty"`
	GPUIntensity      float64             `json:"gpuIntensity"`
	PolyrhythmFactor  float64             `json:"polyrhythmFactor"`
	HarmonicVoices    int                 `json:"harmonicVoices"`
	SwapDistortion    float64             `json:"swapDistortion"`
	BatteryVolumeMult float64             `json:"batteryVolumeMult"`
	BatteryTonality   float64             `json:"batteryTonality"`
	HihatDensity      float64             `json:"hihatDensity"`
	FanNoiseLevel     float64             `json:"fanNoiseLevel"`
	CorePatterns      [][]int             `json:"corePatterns,omitempty"`
	ProcessMelodies   []ProcessMelodyData `json:"processMelodies,omitempty"`
}

type ProcessMelodyData struct {
	Name  string    `json:"name"`
	Notes []float64 `json:"notes"`
}

func buildParamsData(p *St.MusicalParams) ParamsData {
	pd := ParamsData{
		Tempo:             p.Tempo,
		MelodyNotes:       p.MelodyNotes,
		BassNote:          p.BassNote,
		BassVelocity:      p.BassVelocity,
		RhythmDensity:     p.RhythmDensity,
		KickHits:          p.KickHits,
		SnareHits:         p.SnareHits,
		FilterCutoff:      p.FilterCutoff,
		ReverbMix:         p.ReverbMix,
		GPUNotes:          p.GPUNotes,
		GPUIntensity:      p.GPUIntensity,
		PolyrhythmFactor:  p.PolyrhythmFactor,
		HarmonicVoices:    p.HarmonicVoices,
		SwapDistortion:    p.SwapDistortion,
		BatteryVolumeMult: p.BatteryVolumeMult,
		BatteryTonality:   p.BatteryTonality,
		HihatDensity:      p.HihatDensity,
		FanNoiseLevel:     p.FanNoiseLevel,
		CorePatterns:      p.CorePatterns,
	}

	for _, pm := range p.ProcessMelodies {
		pd.ProcessMelodies = append(pd.ProcessMelodies, ProcessMelodyData{
			Name:  pm.Name,
			Notes: pm.Notes,
		})
	}

	return pd
}

func (v *View) ParamsHandler(w http.ResponseWriter, r *http.Request) {
	_, p := v.Sonifier.Snapshot()
	if p == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	pd := buildParamsData(p)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pd)
}

// StatusData reports the playback side of the machine
type StatusData struct {
	State     string  `json:"state"`
	IsPlaying bool    `json:"isPlaying"`
	Volume    float64 `json:"volume"`
	Source    string  `json:"source"`
}

func buildStatusData(s *Ss.Sonifier) StatusData {
	state := "idle"
	if s.Controller.IsPlaying() {
		state = "playing"
	}
	return StatusData{
		State:     state,
		IsPlaying: s.Controller.IsPlaying(),
		Volume:    s.Controller.Volume(),
		Source:    s.Source,
	}
}

func (v *View) StatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buildStatusData(v.Sonifier))
}

// EventData is the wire form of one playback event
type EventData struct {
	Kind     string  `json:"kind"`
	Message  string  `json:"message,omitempty"`
	Fraction float64 `json:"fraction,omitempty"`
	Path     string  `json:"path,omitempty"`
}

func buildEventData(events []Sa.PlaybackEvent) []EventData {
	var out []EventData
	for _, ev := range events {
		out = append(out, EventData{
			Kind:     ev.Kind.String(),
			Message:  ev.Message,
			Fraction: ev.Fraction,
			Path:     ev.Path,
		})
	}
	return out
}

// EventsHandler drains pending playback events.
// Events are delivered to whoever polls first, so a UI
// should read either this endpoint or the websocket, not both.
func (v *View) EventsHandler(w http.ResponseWriter, r *http.Request) {
	events := buildEventData(v.Sonifier.Controller.PollEvents())
	if events == nil {
		events = []EventData{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// CommandRequest is the wire form of a playback command
type CommandRequest struct {
	Action string   `json:"action"`
	Volume *float64 `json:"volume,omitempty"`
	Path   string   `json:"path,omitempty"`
	Format string   `json:"format,omitempty"`
	Bars   int      `json:"bars,omitempty"`
}

func (v *View) CommandHandler(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid command body", http.StatusBadRequest)
		return
	}

	cmd, err := v.buildCommand(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := v.Sonifier.Controller.Send(cmd); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	v.Sonifier.Stats.RecCommand(cmd.Kind.String())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"queued": req.Action})
}

// buildCommand translates a wire request into a playback command.
// Play and export reuse the parameters from the latest cycle.
func (v *View) buildCommand(req CommandRequest) (Sa.PlaybackCommand, error) {
	bars := req.Bars
	if bars < 1 {
		bars = DefaultLiveBars
	}

	switch req.Action {
	case "play":
		_, p := v.Sonifier.Snapshot()
		if p == nil {
			return Sa.PlaybackCommand{}, errors.New("no cycle has run yet")
		}
		return Sa.PlaybackCommand{Kind: Sa.CmdPlay, Params: p, Bars: bars}, nil
	case "stop":
		return Sa.PlaybackCommand{Kind: Sa.CmdStop}, nil
	case "pause":
		return Sa.PlaybackCommand{Kind: Sa.CmdPause}, nil
	case "resume":
		return Sa.PlaybackCommand{Kind: Sa.CmdResume}, nil
	case "volume":
		if req.Volume == nil {
			return Sa.PlaybackCommand{}, errors.New("volume action without a level")
		}
		return Sa.PlaybackCommand{Kind: Sa.CmdSetVolume, Level: *req.Volume}, nil
	case "export":
		_, p := v.Sonifier.Snapshot()
		if p == nil {
			return Sa.PlaybackCommand{}, errors.New("no cycle has run yet")
		}
		if req.Path == "" {
			return Sa.PlaybackCommand{}, errors.New("export action without a path")
		}
		return Sa.PlaybackCommand{
			Kind:   Sa.CmdExport,
			Params: p,
			Bars:   bars,
			Path:   req.Path,
			Format: Sa.ParseFormat(req.Format),
		}, nil
	default:
		return Sa.PlaybackCommand{}, errors.New("unknown action: " + req.Action)
	}
}

// HistoryData is the wire form of one recorded cycle
type HistoryData struct {
	StartTime     time.Time `json:"startTime"`
	Source        string    `json:"source"`
	CPUPercent    float64   `json:"cpuPercent"`
	MemPercent    float64   `json:"memPercent"`
	TempC         float64   `json:"tempC"`
	Tempo         float64   `json:"tempo"`
	RhythmDensity float64   `json:"rhythmDensity"`
	BassNote      float64   `json:"bassNote"`
}

// HistoryHandler serves recorded cycles between ?since= and ?until=,
// both RFC3339. Missing bounds default to the last hour.
func (v *View) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if v.Sonifier.History == nil {
		http.Error(w, "history store is not configured", http.StatusNotFound)
		return
	}

	until := time.Now()
	since := until.Add(-1 * time.Hour)

	if q := r.URL.Query().Get("since"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			http.Error(w, "invalid since time", http.StatusBadRequest)
			return
		}
		since = t
	}
	if q := r.URL.Query().Get("until"); q != "" {
		t, err := time.Parse(time.RFC3339, q)
		if err != nil {
			http.Error(w, "invalid until time", http.StatusBadRequest)
			return
		}
		until = t
	}

	cycles, err := v.Sonifier.History.QueryRange(since, until)
	if err != nil {
		slog.Error("Could not query history", slog.Any("Error", err))
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}

	out := make([]HistoryData, 0, len(cycles))
	for _, c := range cycles {
		hd := HistoryData{
			StartTime: c.StartTime,
			Source:    c.Source,
		}
		if c.Metrics != nil {
			hd.CPUPercent = Ss.FloatPrecise(c.Metrics.CPUUsage, 2)
			hd.MemPercent = Ss.FloatPrecise(c.Metrics.MemoryUsage, 2)
			hd.TempC = Ss.FloatPrecise(c.Metrics.Temperature, 1)
		}
		if c.Params != nil {
			hd.Tempo = c.Params.Tempo
			hd.RhythmDensity = Ss.FloatPrecise(c.Params.RhythmDensity, 2)
			hd.BassNote = c.Params.BassNote
		}
		out = append(out, hd)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		v.Sonifier.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
		v.Sonifier.Stats.RecWWWTimer(r.Method, duration)
	})
}
