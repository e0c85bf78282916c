//go:build nomidi

package syssonic

import "fmt"

func init() {
	Engines["midi"] = func() (Engine, error) {
		return nil, fmt.Errorf("MIDI support not compiled in this build")
	}
}

type MIDIEngine struct{}

func NewMIDIEngine(port int) (*MIDIEngine, error) {
	return nil, fmt.Errorf("MIDI support not compiled in this build")
}

func (me *MIDIEngine) Play(mix *Mixer) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (me *MIDIEngine) Export(mix *Mixer, path string, format Format, progress func(float64)) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (me *MIDIEngine) Flush() error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (me *MIDIEngine) Close() error { return nil }
