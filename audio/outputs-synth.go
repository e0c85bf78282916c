package syssonic

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/oto/v2"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// oto allows a single context per process
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func otoContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(RenderSampleRate, 1, 2)
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// SynthEngine plays compositions through the system audio device
// and exports them as WAV, FLAC, or MIDI files.
type SynthEngine struct{}

func NewSynthEngine() *SynthEngine {
	return &SynthEngine{}
}

func (se *SynthEngine) Play(mix *Mixer) error {
	ctx, err := otoContext()
	if err != nil {
		return fmt.Errorf("error opening audio device: %w", err)
	}

	pcm := RenderMixer(mix, nil)

	player := ctx.NewPlayer(bytes.NewReader(pcmBytes(pcm)))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	return player.Close()
}

func (se *SynthEngine) Export(mix *Mixer, path string, format Format, progress func(float64)) error {
	if format == FormatMidi {
		if err := WriteSMF(mix, path); err != nil {
			return err
		}
		if progress != nil {
			progress(1.0)
		}
		slog.Info("Exported audio",
			slog.String("path", path),
			slog.String("format", format.String()))
		return nil
	}

	var report func(float64)
	if progress != nil {
		report = func(f float64) { progress(f * 0.9) }
	}
	pcm := RenderMixer(mix, report)

	var err error
	switch format {
	case FormatFlac:
		err = encodeFLAC(path, pcm)
	default:
		err = encodeWAV(path, pcm)
	}
	if err != nil {
		return err
	}

	if progress != nil {
		progress(1.0)
	}
	slog.Info("Exported audio",
		slog.String("path", path),
		slog.String("format", format.String()))
	return nil
}

func (se *SynthEngine) Close() error { return nil }

func pcmBytes(pcm []int16) []byte {
	buf := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		u := uint16(s)
		buf[i*2] = byte(u)
		buf[i*2+1] = byte(u >> 8)
	}
	return buf
}

func encodeWAV(path string, pcm []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating WAV file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, RenderSampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: RenderSampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(pcm)),
	}
	for i, s := range pcm {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("error writing WAV data: %w", err)
	}
	return enc.Close()
}

func encodeFLAC(path string, pcm []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating FLAC file: %w", err)
	}
	defer f.Close()

	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  65535,
		SampleRate:    RenderSampleRate,
		NChannels:     1,
		BitsPerSample: 16,
		NSamples:      uint64(len(pcm)),
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		return fmt.Errorf("error creating FLAC encoder: %w", err)
	}

	const blockSize = 4096
	for off := 0; off < len(pcm); off += blockSize {
		end := min(off+blockSize, len(pcm))
		block := pcm[off:end]

		samples := make([]int32, len(block))
		for i, s := range block {
			samples[i] = int32(s)
		}

		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: false,
				BlockSize:         uint16(len(block)),
				SampleRate:        RenderSampleRate,
				Channels:          frame.ChannelsMono,
				BitsPerSample:     16,
			},
			Subframes: []*frame.Subframe{{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   samples,
				NSamples:  len(block),
			}},
		}
		if err := enc.WriteFrame(fr); err != nil {
			return fmt.Errorf("error writing FLAC frame: %w", err)
		}
	}

	return enc.Close()
}
