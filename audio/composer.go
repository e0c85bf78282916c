package syssonic

import (
	"fmt"

	Sm "github.com/maroda/syssonic/mapper"
	St "github.com/maroda/syssonic/types"
)

// BuildComposition arranges one parameter set into a piece that
// repeats for the given number of bars. Quiet subsystems stay
// quiet: a lane only joins the arrangement when its driving
// parameter clears the gate.
func BuildComposition(p *St.MusicalParams, bars int, volume float64) *Composition {
	if bars < 1 {
		bars = 1
	}

	bpm := p.Tempo
	if bpm <= 0 {
		bpm = Sm.DefaultBaseTempo
	}
	comp := NewComposition(NewTempo(bpm))

	sixteenth := comp.Tempo.Sixteenth()
	eighth := comp.Tempo.Eighth()
	quarter := comp.Tempo.Quarter()

	// Melody rides the CPU, alternating eighths and sixteenths
	melody := comp.Instrument("melody", SynthLead).
		Filter(LowPass(p.FilterCutoff, 0.6)).
		Effect(Reverb(p.ReverbMix, 0.5)).
		Effect(Delay(eighth*3.0, 0.3, 0.4))
	for range bars {
		for i, note := range p.MelodyNotes {
			dur := eighth
			if i%2 == 1 {
				dur = sixteenth
			}
			melody.Note(note, dur)
		}
	}

	// Bass holds whole notes, memory velocity sets the weight and
	// swap pressure grinds it
	bassDrive := p.BassVelocity*0.3 + p.SwapDistortion*0.4
	bass := comp.Instrument("bass", SubBass).
		Filter(LowPass(800.0, 0.8)).
		Effect(Distortion(bassDrive))
	for range bars {
		bass.NoteV(p.BassNote, quarter*4.0, p.BassVelocity)
	}

	drums := comp.Track("drums")
	for range bars {
		drums.Grid(16, sixteenth).Kick(p.KickHits).Snare(p.SnareHits)
	}

	// The pad only appears once things warm up
	if p.ReverbMix > 0.2 {
		pad := comp.Instrument("pad", SynthPad).
			Filter(LowPass(p.FilterCutoff*1.5, 0.3)).
			Effect(Reverb(p.ReverbMix, 0.8)).
			Effect(Chorus(0.5, 2.0, 0.3))
		for range bars {
			pad.Chord([]float64{Sm.A2, Sm.C3, Sm.E3}, quarter*4.0)
		}
	}

	hihats := comp.Track("hihats")
	hits := hihatHits(p.HihatDensity)
	for range bars {
		hihats.Grid(16, sixteenth).Hihat(hits)
	}

	if p.GPUNotes != nil && p.GPUIntensity > 0.1 {
		gpu := comp.Instrument("gpu", AnalogSynth).
			Filter(LowPass(p.FilterCutoff*1.2, 0.7)).
			Effect(Chorus(p.GPUChorusDepth, 0.8, 0.4))
		dur := eighth * max(p.GPUIntensity, 0.5) // slower when idle
		for range bars {
			for _, note := range p.GPUNotes {
				gpu.NoteV(note, dur, p.GPUIntensity)
			}
		}
	}

	for coreIdx, pattern := range p.CorePatterns {
		if len(pattern) == 0 || p.PolyrhythmFactor <= 0.2 {
			continue
		}
		lane := comp.Track(fmt.Sprintf("core%d", coreIdx))
		for range bars {
			lane.Grid(16, sixteenth).Shaker(pattern)
		}
	}

	for _, pm := range p.ProcessMelodies {
		lane := comp.Instrument("proc_"+pm.Name, MusicBox)
		for range bars {
			for _, note := range pm.Notes {
				lane.Note(note, sixteenth*3.0)
			}
		}
	}

	if p.FanNoiseLevel > 0.1 {
		fans := comp.Instrument("fans", NoiseWash).
			Filter(HighPass(2000.0, 0.5))
		for range bars {
			fans.NoteV(Sm.A3, quarter*4.0, p.FanNoiseLevel*0.3)
		}
	}

	// VRAM usage sets the master tail, 0.3s when empty up to 5s full
	comp.ReverbDecay = 0.3 + p.VramReverbSize*4.7

	mult := p.BatteryVolumeMult
	if mult <= 0 {
		mult = 1.0
	}
	comp.Gain = Sm.Clamp01(volume) * mult

	return comp
}

func hihatHits(density float64) []int {
	switch {
	case density < 0.3:
		return []int{0, 4, 8, 12}
	case density < 0.7:
		hits := make([]int, 0, 8)
		for i := 0; i < 16; i += 2 {
			hits = append(hits, i)
		}
		return hits
	default:
		hits := make([]int, 16)
		for i := range hits {
			hits[i] = i
		}
		return hits
	}
}

// TestComposition is a fixed four-note pattern over a basic beat,
// used to confirm that audio output works at all.
func TestComposition() *Composition {
	comp := NewComposition(NewTempo(120.0))

	lead := comp.Instrument("test", SynthLead)
	for _, note := range []float64{Sm.C4, Sm.E4, Sm.G4, Sm.C5} {
		lead.Note(note, 0.5)
	}

	comp.Track("drums").
		Grid(16, 0.125).
		Kick([]int{0, 4, 8, 12}).
		Snare([]int{4, 12})

	return comp
}
