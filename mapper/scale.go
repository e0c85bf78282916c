package syssonic

/*

	Pitch tables for the Mapper.

	Frequencies are twelve-tone equal temperament at A4 = 440Hz.
	The one deliberate exception is the mid bass note, which is a
	just fifth above A2 (110 * 1.5) rather than tempered E3.

*/

// Note frequencies in Hz.
const (
	A2 = 110.00
	C3 = 130.81
	E3 = 164.81
	A3 = 220.00
	C4 = 261.63
	D4 = 293.66
	E4 = 329.63
	F4 = 349.23
	G4 = 392.00
	A4 = 440.00
	B4 = 493.88
	C5 = 523.25
	D5 = 587.33
	E5 = 659.25
	F5 = 698.46
	G5 = 783.99
	A5 = 880.00
	B5 = 987.77
	C6 = 1046.50
	D6 = 1174.66
)

// MinorPentatonic is the CPU melody scale: A minor pentatonic
// across three octaves, thirteen notes.
var MinorPentatonic = []float64{
	A3, C4, D4, E4, G4,
	A4, C5, D5, E5, G5,
	A5, C6, D6,
}

// Dorian is the GPU voice scale, a different mode for contrast
// with the CPU's minor pentatonic.
var Dorian = []float64{D4, E4, F4, G4, A4, B4, C5, D5, E5, F5}

// ProcessScale sits in a higher register for the process
// mini-melodies so they ring above everything else.
var ProcessScale = []float64{E5, G5, A5, B5, D6}

// ScaleByName resolves a configured scale name. Unknown names fall
// back to the minor pentatonic.
func ScaleByName(name string) []float64 {
	switch name {
	case "dorian":
		return Dorian
	case "minor_pentatonic", "":
		return MinorPentatonic
	default:
		return MinorPentatonic
	}
}

// ScaleIndex quantizes a 0-100 value onto a scale index:
// floor((value/100) * (length-1)), clamped into range.
func ScaleIndex(value float64, scaleLen int) int {
	if scaleLen < 1 {
		return 0
	}

	idx := int((value / 100.0) * float64(scaleLen-1))
	if idx < 0 {
		idx = 0
	}
	if idx > scaleLen-1 {
		idx = scaleLen - 1
	}
	return idx
}

// Clamp01 bounds a normalized value into [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
