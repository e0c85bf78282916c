//go:build !nomidi

package syssonic

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func init() {
	Engines["midi"] = func() (Engine, error) {
		port := 0
		if v := os.Getenv("SYSSONIC_MIDI_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				port = p
			}
		}
		return NewMIDIEngine(port)
	}
}

// MIDIEngine streams compositions to a hardware or virtual MIDI
// port instead of synthesizing audio, for feeding a DAW or an
// external synth.
type MIDIEngine struct {
	Port drivers.Out
	Send func(msg midi.Message) error
}

func NewMIDIEngine(port int) (*MIDIEngine, error) {
	out, err := midi.OutPort(port)
	if err != nil {
		slog.Error("Error opening MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error opening MIDI port: %w", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		slog.Error("Error sending to MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error sending to MIDI port: %w", err)
	}

	return &MIDIEngine{Port: out, Send: send}, nil
}

// Play walks the message list in real time against a wall clock,
// so long pieces do not drift.
func (me *MIDIEngine) Play(mix *Mixer) error {
	start := time.Now()
	for _, m := range mixerMessages(mix) {
		at := time.Duration(m.At * float64(time.Second))
		if wait := at - time.Since(start); wait > 0 {
			time.Sleep(wait)
		}
		if err := me.Send(m.Msg); err != nil {
			slog.Error("MIDI send failed, attempting Flush", slog.Any("Error", err))
			me.Flush()
			return fmt.Errorf("error sending MIDI message: %w", err)
		}
	}
	return nil
}

func (me *MIDIEngine) Export(mix *Mixer, path string, format Format, progress func(float64)) error {
	if format != FormatMidi {
		return fmt.Errorf("MIDI engine cannot export %s files", format)
	}
	if err := WriteSMF(mix, path); err != nil {
		return err
	}
	if progress != nil {
		progress(1.0)
	}
	return nil
}

// Flush silences anything still sounding.
func (me *MIDIEngine) Flush() error {
	return me.Send(midi.ControlChange(0, midi.AllNotesOff, midi.Off))
}

func (me *MIDIEngine) Close() error {
	if me.Port != nil {
		me.Port.Close()
		midi.CloseDriver()
	}
	return nil
}
