package syssonic

/*

	The playback Controller owns one worker goroutine and two
	queues. Commands go in through a bounded channel, a full
	queue applies backpressure to the sender. Events come back
	through an unbounded buffer the caller drains with a
	non-blocking poll.

	Play occupies the worker until the piece finishes, so
	commands queued behind it apply afterward. Stop, Pause and
	Resume act on the shared flags and answer with their event
	immediately, they do not interrupt a piece mid-render.

*/

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	Sm "github.com/maroda/syssonic/mapper"
	St "github.com/maroda/syssonic/types"
)

type CommandKind int

const (
	CmdPlay CommandKind = iota
	CmdStop
	CmdPause
	CmdResume
	CmdSetVolume
	CmdExport
)

func (k CommandKind) String() string {
	switch k {
	case CmdPlay:
		return "play"
	case CmdStop:
		return "stop"
	case CmdPause:
		return "pause"
	case CmdResume:
		return "resume"
	case CmdSetVolume:
		return "set_volume"
	case CmdExport:
		return "export"
	}
	return "unknown"
}

// PlaybackCommand is one instruction for the worker. Fields are
// read per kind: Play and Export take Params and Bars, SetVolume
// takes Level, Export also takes Path and Format.
type PlaybackCommand struct {
	Kind   CommandKind
	Params *St.MusicalParams
	Bars   int
	Level  float64
	Path   string
	Format Format
}

type EventKind int

const (
	EventPlaying EventKind = iota
	EventStopped
	EventPaused
	EventResumed
	EventError
	EventExportStarted
	EventExportProgress
	EventExportComplete
)

func (k EventKind) String() string {
	switch k {
	case EventPlaying:
		return "playing"
	case EventStopped:
		return "stopped"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventError:
		return "error"
	case EventExportStarted:
		return "export_started"
	case EventExportProgress:
		return "export_progress"
	case EventExportComplete:
		return "export_complete"
	}
	return "unknown"
}

// PlaybackEvent is one worker notification. Message is set on
// error events, Fraction on export progress, Path on export
// completion.
type PlaybackEvent struct {
	Kind     EventKind
	Message  string
	Fraction float64
	Path     string
}

var ErrControllerClosed = errors.New("playback controller is closed")

const (
	commandQueueDepth = 32
	defaultVolume     = 0.8
)

// Controller drives one Engine from a dedicated worker goroutine.
type Controller struct {
	engine Engine

	cmds chan PlaybackCommand
	wg   sync.WaitGroup

	// sendMu orders Send against Close so the command channel is
	// never written after it closes
	sendMu sync.RWMutex
	closed bool

	evMu   sync.Mutex
	events []PlaybackEvent

	playing atomic.Bool
	volume  atomic.Uint64 // float64 bits
}

func NewController(engine Engine) *Controller {
	c := &Controller{
		engine: engine,
		cmds:   make(chan PlaybackCommand, commandQueueDepth),
	}
	c.volume.Store(math.Float64bits(defaultVolume))
	c.wg.Add(1)
	go c.worker()
	return c
}

// Send queues a command for the worker. It blocks while the queue
// is full and fails once the controller is closed.
func (c *Controller) Send(cmd PlaybackCommand) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed {
		return ErrControllerClosed
	}
	c.cmds <- cmd
	return nil
}

// PollEvents drains every pending event without blocking. An empty
// queue answers nil immediately.
func (c *Controller) PollEvents() []PlaybackEvent {
	c.evMu.Lock()
	defer c.evMu.Unlock()

	if len(c.events) == 0 {
		return nil
	}
	out := c.events
	c.events = nil
	return out
}

func (c *Controller) IsPlaying() bool {
	return c.playing.Load()
}

func (c *Controller) Volume() float64 {
	return math.Float64frombits(c.volume.Load())
}

// Close sends a final Stop, seals the queue, and waits for the
// worker to finish whatever it already accepted. Safe to call
// more than once.
func (c *Controller) Close() error {
	c.sendMu.Lock()
	if c.closed {
		c.sendMu.Unlock()
		return nil
	}
	c.cmds <- PlaybackCommand{Kind: CmdStop}
	c.closed = true
	close(c.cmds)
	c.sendMu.Unlock()

	c.wg.Wait()
	return c.engine.Close()
}

func (c *Controller) emit(ev PlaybackEvent) {
	c.evMu.Lock()
	c.events = append(c.events, ev)
	c.evMu.Unlock()
}

func (c *Controller) worker() {
	defer c.wg.Done()

	for cmd := range c.cmds {
		switch cmd.Kind {
		case CmdPlay:
			c.handlePlay(cmd)
		case CmdStop:
			c.playing.Store(false)
			c.emit(PlaybackEvent{Kind: EventStopped})
		case CmdPause:
			c.playing.Store(false)
			c.emit(PlaybackEvent{Kind: EventPaused})
		case CmdResume:
			c.playing.Store(true)
			c.emit(PlaybackEvent{Kind: EventResumed})
		case CmdSetVolume:
			c.volume.Store(math.Float64bits(Sm.Clamp01(cmd.Level)))
		case CmdExport:
			c.handleExport(cmd)
		}
	}
}

func (c *Controller) handlePlay(cmd PlaybackCommand) {
	c.playing.Store(true)
	c.emit(PlaybackEvent{Kind: EventPlaying})

	if cmd.Params == nil {
		c.playing.Store(false)
		c.emit(PlaybackEvent{Kind: EventError, Message: "play command without parameters"})
		return
	}

	mix := BuildComposition(cmd.Params, cmd.Bars, c.Volume()).Mixer()
	if err := c.engine.Play(mix); err != nil {
		slog.Error("Playback failed", slog.Any("Error", err))
		c.playing.Store(false)
		c.emit(PlaybackEvent{Kind: EventError, Message: err.Error()})
		return
	}

	c.playing.Store(false)
	c.emit(PlaybackEvent{Kind: EventStopped})
}

func (c *Controller) handleExport(cmd PlaybackCommand) {
	c.emit(PlaybackEvent{Kind: EventExportStarted})

	if cmd.Params == nil {
		c.emit(PlaybackEvent{Kind: EventError, Message: "export command without parameters"})
		return
	}

	mix := BuildComposition(cmd.Params, cmd.Bars, c.Volume()).Mixer()
	err := c.engine.Export(mix, cmd.Path, cmd.Format, func(frac float64) {
		c.emit(PlaybackEvent{Kind: EventExportProgress, Fraction: frac})
	})
	if err != nil {
		slog.Error("Export failed",
			slog.String("path", cmd.Path),
			slog.Any("Error", err))
		c.emit(PlaybackEvent{Kind: EventError, Message: err.Error()})
		return
	}

	c.emit(PlaybackEvent{Kind: EventExportComplete, Path: cmd.Path})
}
