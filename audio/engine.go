package syssonic

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Engine turns a Mixer into sound, either live or as a file.
// Play blocks until the piece finishes.
type Engine interface {
	Play(mix *Mixer) error
	Export(mix *Mixer, path string, format Format, progress func(float64)) error
	Close() error
}

var ErrUnknownEngine = errors.New("unknown audio engine")

// Engines is a global map of available Engine constructors.
// The MIDI engine registers itself when compiled in.
var Engines = map[string]func() (Engine, error){
	"synth": func() (Engine, error) {
		return NewSynthEngine(), nil
	},
}

func EngineLookup(name string) (Engine, error) {
	factory, ok := Engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	return factory()
}

// EngineNames lists the registered engines in stable order
func EngineNames() []string {
	names := make([]string, 0, len(Engines))
	for name := range Engines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Format selects the export file encoding.
type Format int

const (
	FormatWav Format = iota
	FormatFlac
	FormatMidi
)

func (f Format) String() string {
	switch f {
	case FormatFlac:
		return "flac"
	case FormatMidi:
		return "midi"
	default:
		return "wav"
	}
}

func (f Format) Ext() string {
	switch f {
	case FormatFlac:
		return ".flac"
	case FormatMidi:
		return ".mid"
	default:
		return ".wav"
	}
}

// ParseFormat reads a format name. Anything unrecognized falls
// back to WAV with a warning rather than failing the export.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "wav":
		return FormatWav
	case "flac":
		return FormatFlac
	case "midi":
		return FormatMidi
	default:
		slog.Warn("Unknown export format, using WAV",
			slog.String("format", s))
		return FormatWav
	}
}
