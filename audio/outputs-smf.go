package syssonic

import (
	"fmt"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const smfTicksPerQuarter = 960

// GM percussion keys, all on the drum channel.
const (
	drumChannel = 9
	gmKick      = 36
	gmSnare     = 38
	gmHihat     = 42
	gmShaker    = 70
)

// midiKey converts a frequency to the nearest MIDI note number.
func midiKey(freq float64) uint8 {
	if freq <= 0 {
		return 0
	}
	key := math.Round(69.0 + 12.0*math.Log2(freq/440.0))
	if key < 0 {
		key = 0
	}
	if key > 127 {
		key = 127
	}
	return uint8(key)
}

func midiVelocity(vel float64) uint8 {
	v := math.Round(vel * 127.0)
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	return uint8(v)
}

// timedMessage is one wire message pinned to absolute seconds.
// NoteOff sorts ahead of NoteOn at the same instant so repeated
// pitches never overlap.
type timedMessage struct {
	At  float64
	Off bool
	Msg midi.Message
}

// mixerMessages flattens the mix into a time-ordered MIDI message
// list. Pitched lanes take channels counting up from zero, skipping
// the drum channel, and percussion maps to GM keys.
func mixerMessages(mix *Mixer) []timedMessage {
	var msgs []timedMessage

	nextChan := uint8(0)
	for _, lane := range mix.Lanes {
		laneChan := drumChannel
		if lanePitched(lane) {
			laneChan = int(nextChan)
			nextChan++
			if nextChan == drumChannel {
				nextChan++
			}
			if nextChan > 15 {
				nextChan = 0
			}
		}

		for _, ev := range lane.Events {
			vel := midiVelocity(ev.Velocity)

			if ev.Drum != DrumNone {
				key := gmDrumKey(ev.Drum)
				msgs = append(msgs,
					timedMessage{At: ev.Start, Msg: midi.NoteOn(drumChannel, key, vel)},
					timedMessage{At: ev.Start + ev.Duration, Off: true, Msg: midi.NoteOff(drumChannel, key)},
				)
				continue
			}

			for _, freq := range ev.Freqs {
				key := midiKey(freq)
				msgs = append(msgs,
					timedMessage{At: ev.Start, Msg: midi.NoteOn(uint8(laneChan), key, vel)},
					timedMessage{At: ev.Start + ev.Duration, Off: true, Msg: midi.NoteOff(uint8(laneChan), key)},
				)
			}
		}
	}

	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].At != msgs[j].At {
			return msgs[i].At < msgs[j].At
		}
		return msgs[i].Off && !msgs[j].Off
	})

	return msgs
}

func lanePitched(lane *Lane) bool {
	for _, ev := range lane.Events {
		if ev.Drum == DrumNone {
			return true
		}
	}
	return false
}

func gmDrumKey(kind DrumKind) uint8 {
	switch kind {
	case DrumSnare:
		return gmSnare
	case DrumHihat:
		return gmHihat
	case DrumShaker:
		return gmShaker
	default:
		return gmKick
	}
}

// WriteSMF writes the mix as a single-track Standard MIDI File.
func WriteSMF(mix *Mixer, path string) error {
	bpm := mix.BPM
	if bpm <= 0 {
		bpm = 120.0
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(smfTicksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(bpm))

	last := uint32(0)
	for _, m := range mixerMessages(mix) {
		tick := secondsToTicks(m.At, bpm)
		tr.Add(tick-last, m.Msg)
		last = tick
	}
	tr.Close(0)
	s.Add(tr)

	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

func secondsToTicks(sec, bpm float64) uint32 {
	quarters := sec * bpm / 60.0
	return uint32(math.Round(quarters * smfTicksPerQuarter))
}
