package syssonic

/*

	The offline renderer. One pass per lane: synthesize events
	into a float buffer, run the lane's filter and effect chains
	in order, then sum into the master. The master gets the VRAM
	reverb tail and a tanh saturator before quantizing to 16-bit.

	Rendering is deterministic, noise comes from a PCG seeded per
	lane index.

*/

import (
	"math"
	"math/rand/v2"
)

const (
	// RenderSampleRate is fixed for playback and all exports.
	RenderSampleRate = 44100

	masterHeadroom = 0.8
)

// RenderMixer renders the whole mix to mono 16-bit PCM. progress
// may be nil, otherwise it receives the fraction of lanes done.
func RenderMixer(mix *Mixer, progress func(float64)) []int16 {
	sr := float64(RenderSampleRate)
	tail := 2.0 + mix.ReverbDecay
	total := int((mix.Duration + tail) * sr)
	if total < 1 {
		total = 1
	}

	master := make([]float64, total)
	for i, lane := range mix.Lanes {
		buf := renderLane(lane, total, sr, uint64(i))
		for j, s := range buf {
			master[j] += s
		}
		if progress != nil {
			progress(float64(i+1) / float64(len(mix.Lanes)))
		}
	}

	applyReverb(master, 0.12, mix.ReverbDecay, sr)

	out := make([]int16, total)
	gain := mix.Gain * masterHeadroom
	for i, s := range master {
		out[i] = int16(math.Tanh(s*gain) * 32767.0)
	}
	return out
}

func renderLane(lane *Lane, total int, sr float64, seed uint64) []float64 {
	buf := make([]float64, total)
	rng := rand.New(rand.NewPCG(0x5EED, seed))

	for _, ev := range lane.Events {
		if ev.Drum != DrumNone {
			renderDrum(buf, ev, sr, rng)
		} else {
			renderNote(buf, lane.Instrument, ev, sr, rng)
		}
	}

	for _, f := range lane.Filters {
		applyFilter(buf, f, sr)
	}
	for _, e := range lane.Effects {
		switch e.Kind {
		case EffectDistortion:
			applyDistortion(buf, e.Drive)
		case EffectChorus:
			applyChorus(buf, e.Depth, e.Rate, e.Mix, sr)
		case EffectDelay:
			applyDelay(buf, e.Time, e.Feedback, e.Mix, sr)
		case EffectReverb:
			applyReverb(buf, e.Mix, e.Decay, sr)
		}
	}

	return buf
}

func renderNote(buf []float64, inst Instrument, ev NoteEvent, sr float64, rng *rand.Rand) {
	start := int(ev.Start * sr)
	length := int((ev.Duration + inst.Release) * sr)

	for i := 0; i < length; i++ {
		idx := start + i
		if idx < 0 {
			continue
		}
		if idx >= len(buf) {
			break
		}
		t := float64(i) / sr
		env := adsr(t, ev.Duration, inst)
		if env <= 0 {
			continue
		}
		var s float64
		for _, freq := range ev.Freqs {
			s += oscillate(inst.Wave, freq, t, rng)
		}
		buf[idx] += s * env * ev.Velocity * inst.Gain
	}
}

func oscillate(w Waveform, freq, t float64, rng *rand.Rand) float64 {
	switch w {
	case WaveSquare:
		if math.Sin(2.0*math.Pi*freq*t) >= 0 {
			return 1.0
		}
		return -1.0
	case WaveSaw:
		_, frac := math.Modf(freq * t)
		return 2.0*frac - 1.0
	case WaveTriangle:
		_, frac := math.Modf(freq * t)
		return 1.0 - 4.0*math.Abs(frac-0.5)
	case WaveNoise:
		return rng.Float64()*2.0 - 1.0
	default:
		return math.Sin(2.0 * math.Pi * freq * t)
	}
}

// adsr evaluates the envelope at t seconds into a note held for
// noteDur, with the release tail past the hold.
func adsr(t, noteDur float64, inst Instrument) float64 {
	if t < 0 {
		return 0
	}
	if t < inst.Attack {
		return t / inst.Attack
	}
	if t < inst.Attack+inst.Decay {
		return 1.0 - (t-inst.Attack)/inst.Decay*(1.0-inst.Sustain)
	}
	if t < noteDur {
		return inst.Sustain
	}
	rel := t - noteDur
	if inst.Release <= 0 || rel >= inst.Release {
		return 0
	}
	return inst.Sustain * (1.0 - rel/inst.Release)
}

func renderDrum(buf []float64, ev NoteEvent, sr float64, rng *rand.Rand) {
	start := int(ev.Start * sr)

	var dur float64
	switch ev.Drum {
	case DrumKick:
		dur = 0.35
	case DrumSnare:
		dur = 0.25
	case DrumHihat:
		dur = 0.08
	case DrumShaker:
		dur = 0.12
	}

	length := int(dur * sr)
	for i := 0; i < length; i++ {
		idx := start + i
		if idx < 0 {
			continue
		}
		if idx >= len(buf) {
			break
		}
		t := float64(i) / sr

		var s float64
		switch ev.Drum {
		case DrumKick:
			// phase-accumulated sweep keeps the sub clean
			phase := 2.0 * math.Pi * (150.0/12.0*(1.0-math.Exp(-t*12.0)) + 45.0*t)
			s = math.Sin(phase) * math.Exp(-t*8.0)
		case DrumSnare:
			noise := rng.Float64()*2.0 - 1.0
			s = noise*math.Exp(-t*18.0)*0.7 +
				math.Sin(2.0*math.Pi*185.0*t)*math.Exp(-t*25.0)*0.4
		case DrumHihat:
			noise := rng.Float64()*2.0 - 1.0
			s = noise * math.Exp(-t*60.0) * 0.5
		case DrumShaker:
			noise := rng.Float64()*2.0 - 1.0
			ramp := math.Min(t/0.01, 1.0)
			s = noise * ramp * math.Exp(-t*35.0) * 0.4
		}

		buf[idx] += s * ev.Velocity
	}
}

type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func newBiquad(kind FilterKind, cutoff, resonance, sr float64) *biquad {
	fc := math.Min(math.Max(cutoff, 20.0), sr*0.45)
	q := 0.707 + resonance*5.0

	w := 2.0 * math.Pi * fc / sr
	sinw, cosw := math.Sin(w), math.Cos(w)
	alpha := sinw / (2.0 * q)

	var b0, b1, b2 float64
	switch kind {
	case FilterHighPass:
		b0 = (1.0 + cosw) / 2.0
		b1 = -(1.0 + cosw)
		b2 = b0
	default:
		b0 = (1.0 - cosw) / 2.0
		b1 = 1.0 - cosw
		b2 = b0
	}

	a0 := 1.0 + alpha
	return &biquad{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: -2.0 * cosw / a0, a2: (1.0 - alpha) / a0,
	}
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func applyFilter(buf []float64, flt Filter, sr float64) {
	bq := newBiquad(flt.Kind, flt.Cutoff, flt.Resonance, sr)
	for i, s := range buf {
		buf[i] = bq.process(s)
	}
}

func applyDistortion(buf []float64, drive float64) {
	if drive <= 0 {
		return
	}
	pre := 1.0 + 4.0*drive
	for i, s := range buf {
		buf[i] = math.Tanh(s * pre)
	}
}

func applyDelay(buf []float64, delay, feedback, mix float64, sr float64) {
	n := int(delay * sr)
	if n < 1 || mix <= 0 {
		return
	}
	line := make([]float64, n)
	pos := 0
	for i, s := range buf {
		wet := line[pos]
		line[pos] = s + wet*feedback
		buf[i] = s + wet*mix
		pos++
		if pos == n {
			pos = 0
		}
	}
}

func applyChorus(buf []float64, depth, rate, mix float64, sr float64) {
	if mix <= 0 {
		return
	}
	base := 0.015 * sr
	mod := 0.010 * depth * sr

	out := make([]float64, len(buf))
	for i := range buf {
		t := float64(i) / sr
		d := base + mod*math.Sin(2.0*math.Pi*rate*t)
		pos := float64(i) - d

		var tap float64
		if pos >= 0 {
			j := int(pos)
			frac := pos - float64(j)
			tap = buf[j] * (1.0 - frac)
			if j+1 < len(buf) {
				tap += buf[j+1] * frac
			}
		}
		out[i] = buf[i]*(1.0-mix) + tap*mix
	}
	copy(buf, out)
}

// applyReverb is a pair of feedback combs tuned for a small room.
// The feedback follows the RT60 decay time per comb length.
func applyReverb(buf []float64, mix, decay float64, sr float64) {
	if mix <= 0 || decay <= 0 {
		return
	}

	type comb struct {
		line []float64
		pos  int
		fb   float64
	}

	var combs []*comb
	for _, d := range []float64{0.0297, 0.0371} {
		fb := math.Pow(10.0, -3.0*d/decay)
		if fb > 0.98 {
			fb = 0.98
		}
		combs = append(combs, &comb{line: make([]float64, int(d*sr)), fb: fb})
	}

	for i, s := range buf {
		var wet float64
		for _, c := range combs {
			out := c.line[c.pos]
			c.line[c.pos] = s + out*c.fb
			c.pos++
			if c.pos == len(c.line) {
				c.pos = 0
			}
			wet += out
		}
		buf[i] = s*(1.0-mix) + wet*0.5*mix
	}
}
