package syssonic

/*

	A Composition is a set of named Lanes scheduled against one
	Tempo. Lanes carry their own cursor, so melodic material and
	drum grids advance independently. Flattening to a Mixer fixes
	every event at an absolute time in seconds, which is what the
	engines consume.

*/

import "math"

// Tempo converts beats per minute into note durations in seconds.
type Tempo struct {
	BPM float64
}

func NewTempo(bpm float64) Tempo {
	if bpm <= 0 {
		bpm = 120.0
	}
	return Tempo{BPM: bpm}
}

func (t Tempo) Quarter() float64   { return 60.0 / t.BPM }
func (t Tempo) Eighth() float64    { return t.Quarter() / 2.0 }
func (t Tempo) Sixteenth() float64 { return t.Quarter() / 4.0 }
func (t Tempo) Bar() float64       { return t.Quarter() * 4.0 }

// Waveform selects the oscillator shape for a pitched voice.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
)

// Instrument is an oscillator plus envelope preset.
type Instrument struct {
	Name    string
	Wave    Waveform
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
	Gain    float64
}

var (
	SynthLead   = Instrument{Name: "synth_lead", Wave: WaveSaw, Attack: 0.01, Decay: 0.08, Sustain: 0.7, Release: 0.15, Gain: 0.5}
	SubBass     = Instrument{Name: "sub_bass", Wave: WaveSine, Attack: 0.005, Decay: 0.05, Sustain: 0.9, Release: 0.2, Gain: 0.9}
	SynthPad    = Instrument{Name: "synth_pad", Wave: WaveTriangle, Attack: 0.8, Decay: 0.3, Sustain: 0.8, Release: 1.2, Gain: 0.35}
	AnalogSynth = Instrument{Name: "analog_synth", Wave: WaveSquare, Attack: 0.02, Decay: 0.1, Sustain: 0.6, Release: 0.2, Gain: 0.4}
	MusicBox    = Instrument{Name: "music_box", Wave: WaveSine, Attack: 0.002, Decay: 0.3, Sustain: 0.0, Release: 0.4, Gain: 0.5}
	NoiseWash   = Instrument{Name: "noise_wash", Wave: WaveNoise, Attack: 0.5, Decay: 0.2, Sustain: 0.8, Release: 1.0, Gain: 0.3}
)

type FilterKind int

const (
	FilterLowPass FilterKind = iota
	FilterHighPass
)

// Filter is one stage of the lane filter chain. Resonance runs 0-1.
type Filter struct {
	Kind      FilterKind
	Cutoff    float64
	Resonance float64
}

func LowPass(cutoff, resonance float64) Filter {
	return Filter{Kind: FilterLowPass, Cutoff: cutoff, Resonance: resonance}
}

func HighPass(cutoff, resonance float64) Filter {
	return Filter{Kind: FilterHighPass, Cutoff: cutoff, Resonance: resonance}
}

type EffectKind int

const (
	EffectReverb EffectKind = iota
	EffectDelay
	EffectDistortion
	EffectChorus
)

// Effect is one stage of the lane effect chain. Fields are used
// per kind: reverb reads Mix and Decay, delay reads Time, Feedback
// and Mix, distortion reads Drive, chorus reads Depth, Rate and Mix.
type Effect struct {
	Kind     EffectKind
	Mix      float64
	Decay    float64
	Time     float64
	Feedback float64
	Drive    float64
	Depth    float64
	Rate     float64
}

func Reverb(mix, decay float64) Effect {
	return Effect{Kind: EffectReverb, Mix: mix, Decay: decay}
}

func Delay(time, feedback, mix float64) Effect {
	return Effect{Kind: EffectDelay, Time: time, Feedback: feedback, Mix: mix}
}

func Distortion(drive float64) Effect {
	return Effect{Kind: EffectDistortion, Drive: drive}
}

func Chorus(depth, rate, mix float64) Effect {
	return Effect{Kind: EffectChorus, Depth: depth, Rate: rate, Mix: mix}
}

type DrumKind int

const (
	DrumNone DrumKind = iota
	DrumKick
	DrumSnare
	DrumHihat
	DrumShaker
)

// NoteEvent is one scheduled sound. Pitched events carry one or
// more simultaneous frequencies, percussion events carry a DrumKind
// and no frequencies.
type NoteEvent struct {
	Freqs    []float64
	Start    float64
	Duration float64
	Velocity float64
	Drum     DrumKind
}

const defaultVelocity = 0.8

// Lane is one named voice with its own schedule cursor.
type Lane struct {
	Name       string
	Instrument Instrument
	Filters    []Filter
	Effects    []Effect
	Events     []NoteEvent
	Cursor     float64
}

func (l *Lane) Filter(f Filter) *Lane {
	l.Filters = append(l.Filters, f)
	return l
}

func (l *Lane) Effect(e Effect) *Lane {
	l.Effects = append(l.Effects, e)
	return l
}

// Note appends a single pitch at the cursor and advances it.
func (l *Lane) Note(freq, dur float64) *Lane {
	return l.NoteV(freq, dur, defaultVelocity)
}

func (l *Lane) NoteV(freq, dur, vel float64) *Lane {
	l.Events = append(l.Events, NoteEvent{
		Freqs:    []float64{freq},
		Start:    l.Cursor,
		Duration: dur,
		Velocity: vel,
	})
	l.Cursor += dur
	return l
}

// Chord appends simultaneous pitches at the cursor and advances it
// once.
func (l *Lane) Chord(freqs []float64, dur float64) *Lane {
	l.Events = append(l.Events, NoteEvent{
		Freqs:    freqs,
		Start:    l.Cursor,
		Duration: dur,
		Velocity: defaultVelocity,
	})
	l.Cursor += dur
	return l
}

func (l *Lane) Rest(dur float64) *Lane {
	l.Cursor += dur
	return l
}

// end reports when the last event in the lane stops sounding.
func (l *Lane) end() float64 {
	end := l.Cursor
	for _, ev := range l.Events {
		end = math.Max(end, ev.Start+ev.Duration)
	}
	return end
}

// Grid opens a percussion grid of equally spaced slots starting at
// the lane cursor and advances the cursor past the whole grid.
type Grid struct {
	lane    *Lane
	start   float64
	slotDur float64
	slots   int
}

func (l *Lane) Grid(slots int, slotDur float64) *Grid {
	g := &Grid{lane: l, start: l.Cursor, slotDur: slotDur, slots: slots}
	l.Cursor += float64(slots) * slotDur
	return g
}

func (g *Grid) hit(kind DrumKind, slots []int, vel float64) *Grid {
	for _, s := range slots {
		if s < 0 || s >= g.slots {
			continue
		}
		g.lane.Events = append(g.lane.Events, NoteEvent{
			Start:    g.start + float64(s)*g.slotDur,
			Duration: g.slotDur,
			Velocity: vel,
			Drum:     kind,
		})
	}
	return g
}

func (g *Grid) Kick(slots []int) *Grid   { return g.hit(DrumKick, slots, 1.0) }
func (g *Grid) Snare(slots []int) *Grid  { return g.hit(DrumSnare, slots, 0.9) }
func (g *Grid) Hihat(slots []int) *Grid  { return g.hit(DrumHihat, slots, 0.5) }
func (g *Grid) Shaker(slots []int) *Grid { return g.hit(DrumShaker, slots, 0.4) }

// Composition holds the lanes in creation order.
type Composition struct {
	Tempo Tempo
	Gain  float64

	// ReverbDecay is the master tail length in seconds.
	ReverbDecay float64

	lanes map[string]*Lane
	order []string
}

func NewComposition(tempo Tempo) *Composition {
	return &Composition{
		Tempo:       tempo,
		Gain:        1.0,
		ReverbDecay: 0.3,
		lanes:       make(map[string]*Lane),
	}
}

// Instrument returns the named lane, creating it with the given
// preset on first use. Later calls with the same name keep the
// original preset, matching how a voice keeps its character for
// the life of the piece.
func (c *Composition) Instrument(name string, inst Instrument) *Lane {
	if l, ok := c.lanes[name]; ok {
		return l
	}
	l := &Lane{Name: name, Instrument: inst}
	c.lanes[name] = l
	c.order = append(c.order, name)
	return l
}

// Track returns the named percussion lane.
func (c *Composition) Track(name string) *Lane {
	return c.Instrument(name, Instrument{Name: name})
}

// Mixer flattens the composition for rendering.
func (c *Composition) Mixer() *Mixer {
	m := &Mixer{
		BPM:         c.Tempo.BPM,
		Gain:        c.Gain,
		ReverbDecay: c.ReverbDecay,
	}
	for _, name := range c.order {
		lane := c.lanes[name]
		m.Lanes = append(m.Lanes, lane)
		m.Duration = math.Max(m.Duration, lane.end())
	}
	return m
}

// Mixer is the render-ready form: every lane's events pinned to
// absolute seconds, plus the master gain and reverb tail.
type Mixer struct {
	BPM         float64
	Lanes       []*Lane
	Duration    float64
	Gain        float64
	ReverbDecay float64
}
