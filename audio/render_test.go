package syssonic_test

import (
	"slices"
	"testing"

	Sa "github.com/maroda/syssonic/audio"
)

func TestRenderMixer(t *testing.T) {
	t.Run("The same mix renders the same samples", func(t *testing.T) {
		first := Sa.RenderMixer(Sa.TestComposition().Mixer(), nil)
		second := Sa.RenderMixer(Sa.TestComposition().Mixer(), nil)

		if !slices.Equal(first, second) {
			t.Errorf("Expected identical renders of the same mix")
		}
	})

	t.Run("The test pattern is audible", func(t *testing.T) {
		pcm := Sa.RenderMixer(Sa.TestComposition().Mixer(), nil)

		audible := false
		for _, s := range pcm {
			if s != 0 {
				audible = true
				break
			}
		}
		if !audible {
			t.Errorf("Expected a non-silent render")
		}
	})

	t.Run("The render covers the piece plus the tail", func(t *testing.T) {
		mix := Sa.TestComposition().Mixer()
		pcm := Sa.RenderMixer(mix, nil)

		// two seconds of material, at least two seconds of tail
		if len(pcm) < 4*Sa.RenderSampleRate {
			t.Errorf("Render too short, got %d samples", len(pcm))
		}
		if len(pcm) > 6*Sa.RenderSampleRate {
			t.Errorf("Render too long, got %d samples", len(pcm))
		}
	})

	t.Run("Progress lands on done", func(t *testing.T) {
		mix := Sa.TestComposition().Mixer()

		var fractions []float64
		Sa.RenderMixer(mix, func(f float64) {
			fractions = append(fractions, f)
		})

		assertInt(t, len(fractions), len(mix.Lanes))
		assertFloat(t, fractions[len(fractions)-1], 1.0)
	})

	t.Run("An empty mix still renders", func(t *testing.T) {
		pcm := Sa.RenderMixer(&Sa.Mixer{}, nil)
		if len(pcm) < 1 {
			t.Errorf("Expected at least one sample, got %d", len(pcm))
		}
	})

	t.Run("Zero gain is silence", func(t *testing.T) {
		mix := Sa.TestComposition().Mixer()
		mix.Gain = 0.0

		for _, s := range Sa.RenderMixer(mix, nil) {
			if s != 0 {
				t.Errorf("Expected silence at zero gain, got %d", s)
				break
			}
		}
	})
}
