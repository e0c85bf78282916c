package syssonic_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	Sa "github.com/maroda/syssonic/audio"
	Sm "github.com/maroda/syssonic/mapper"
	Sc "github.com/maroda/syssonic/metrics"
	So "github.com/maroda/syssonic/obvy"
	Sp "github.com/maroda/syssonic/plugin"
	Ss "github.com/maroda/syssonic/server"
)

func TestNewSonifier(t *testing.T) {
	t.Run("A default config wires the whole pipeline", func(t *testing.T) {
		son, err := Ss.NewSonifier(makeTestConfig(), "test")
		assertError(t, err, nil)

		assertString(t, son.Source, "test")
		if son.History != nil {
			t.Errorf("Expected no history store without a path")
		}
		assertError(t, son.Close(), nil)
	})

	t.Run("An unknown engine refuses to start", func(t *testing.T) {
		config := makeTestConfig()
		config.Engine = "theremin"

		_, err := Ss.NewSonifier(config, "test")
		assertError(t, err, Sa.ErrUnknownEngine)
	})

	t.Run("An unknown history store refuses to start", func(t *testing.T) {
		config := makeTestConfig()
		config.HistoryPath = filepath.Join(t.TempDir(), "history.jsonl")
		config.HistoryStore = "etcd"

		_, err := Ss.NewSonifier(config, "test")
		assertGotError(t, err)
	})

	t.Run("A history path opens the store", func(t *testing.T) {
		config := makeTestConfig()
		config.HistoryPath = filepath.Join(t.TempDir(), "history.jsonl")
		config.HistoryStore = "jsonl"

		son, err := Ss.NewSonifier(config, "test")
		assertError(t, err, nil)

		assertString(t, son.History.Type(), "JSONL")
		assertError(t, son.Close(), nil)
	})
}

func TestSonifier_CycleOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("One cycle measures, maps and plays", func(t *testing.T) {
		fake := &fakeEngine{}
		son := makeTestSonifier(fake)
		defer son.Close()

		err := son.CycleOnce(ctx, 1, time.Millisecond, 1)
		assertError(t, err, nil)

		m, p := son.Snapshot()
		if m == nil || p == nil {
			t.Fatalf("Expected a snapshot after the cycle")
		}
		if p.Tempo <= 0 {
			t.Errorf("Expected a live tempo, got %f", p.Tempo)
		}

		waitForCount(t, fake.PlayCount, 1)
	})

	t.Run("A cycle is recorded in the history store", func(t *testing.T) {
		start := time.Now()
		fake := &fakeEngine{}
		son := makeTestSonifier(fake)
		defer son.Close()

		history, err := Sp.NewJSONLHistory(filepath.Join(t.TempDir(), "history.jsonl"))
		if err != nil {
			t.Fatalf("got error %q, wanted a store", err)
		}
		son.History = history

		assertError(t, son.CycleOnce(ctx, 1, time.Millisecond, 1), nil)
		assertError(t, history.Flush(), nil)

		cycles, err := history.QueryRange(start.Add(-time.Minute), time.Now().Add(time.Minute))
		assertError(t, err, nil)
		assertInt(t, len(cycles), 1)
		assertString(t, cycles[0].Source, "test")
	})

	t.Run("A closed sonifier refuses the cycle", func(t *testing.T) {
		son := makeTestSonifier(&fakeEngine{})
		assertError(t, son.Close(), nil)

		err := son.CycleOnce(ctx, 1, time.Millisecond, 1)
		assertError(t, err, Sa.ErrControllerClosed)
	})
}

func TestSonifier_ExportOnce(t *testing.T) {
	ctx := context.Background()

	fake := &fakeEngine{}
	son := makeTestSonifier(fake)
	defer son.Close()

	path := filepath.Join(t.TempDir(), "cycle.wav")
	err := son.ExportOnce(ctx, 1, time.Millisecond, 1, path, Sa.FormatWav)
	assertError(t, err, nil)

	waitForCount(t, fake.ExportCount, 1)

	m, p := son.Snapshot()
	if m == nil || p == nil {
		t.Errorf("Expected a snapshot after the export cycle")
	}
}

func TestSonifier_Snapshot(t *testing.T) {
	son := makeTestSonifier(&fakeEngine{})
	defer son.Close()

	m, p := son.Snapshot()
	if m != nil || p != nil {
		t.Errorf("Expected no snapshot before the first cycle")
	}
}

// makeTestConfig keeps the probing sensor domains off so runs
// stay deterministic on any machine
func makeTestConfig() *Ss.Config {
	config := Ss.DefaultConfig()
	config.EnableGPU = false
	config.EnableBattery = false
	config.EnableFans = false
	return config
}

// makeTestSonifier assembles the pipeline by hand around a fake
// engine, no audio device needed
func makeTestSonifier(fake *fakeEngine) *Ss.Sonifier {
	return &Ss.Sonifier{
		Source:     "test",
		Collector:  Sc.NewCollector(Sc.NewSensorHub(false, false, false)),
		Mapper:     Sm.NewMapper(),
		Controller: Sa.NewController(fake),
		Stats:      So.NewStatsInternal(),
	}
}

// waitForCount polls a counter until it reaches want, the playback
// worker runs on its own goroutine
func waitForCount(t testing.TB, count func() int, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if count() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d", want)
}

type fakeEngine struct {
	MU      sync.Mutex
	Plays   int
	Exports int
}

func (f *fakeEngine) Play(mix *Sa.Mixer) error {
	f.MU.Lock()
	defer f.MU.Unlock()

	f.Plays++
	return nil
}

func (f *fakeEngine) Export(mix *Sa.Mixer, path string, format Sa.Format, progress func(float64)) error {
	f.MU.Lock()
	f.Exports++
	f.MU.Unlock()

	if progress != nil {
		progress(1.0)
	}
	return nil
}

func (f *fakeEngine) Close() error { return nil }

func (f *fakeEngine) PlayCount() int {
	f.MU.Lock()
	defer f.MU.Unlock()
	return f.Plays
}

func (f *fakeEngine) ExportCount() int {
	f.MU.Lock()
	defer f.MU.Unlock()
	return f.Exports
}
