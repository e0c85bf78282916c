package syssonic_test

import (
	"math"
	"reflect"
	"slices"
	"testing"

	Sm "github.com/maroda/syssonic/mapper"
	St "github.com/maroda/syssonic/types"
)

func TestMapper_MapIsPure(t *testing.T) {
	power := 42.0
	m := &St.SystemMetrics{
		CPUUsage:       63.2,
		MemoryUsage:    71.9,
		DiskReadBytes:  3_500_000,
		DiskWriteBytes: 1_200_000,
		NetworkRxBytes: 800_000,
		NetworkTxBytes: 90_000,
		Temperature:    58.4,
		GPU: &St.GpuReading{
			Vendor:      St.GpuNvidia,
			Utilization: 77.0,
			Temperature: 66.0,
			MemoryUsed:  2 * 1024 * 1024 * 1024,
			MemoryTotal: 8 * 1024 * 1024 * 1024,
			PowerDraw:   &power,
		},
		Battery:      &St.Battery{ChargePercent: 88.0, State: St.BatteryDischarging},
		PerCoreUsage: []float64{90.1, 12.3, 55.5, 41.0, 8.8},
		LoadAvg1:     3.2,
		LoadAvg5:     2.1,
		LoadAvg15:    1.4,
		SwapUsed:     512,
		SwapTotal:    4096,
		ProcessCount: 214,
		TopProcesses: []St.Process{
			{Name: "ffmpeg", CPUPercent: 91.0},
			{Name: "go", CPUPercent: 30.5},
		},
		FanSpeeds: []St.Fan{{Label: "cpu_fan", RPM: 1800}},
	}

	mp := Sm.NewMapper()
	first := mp.Map(m)
	second := mp.Map(m)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Mapping the same snapshot twice diverged:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestMapper_CPUMelody(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("Idle CPU sits at the bottom of the scale", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{CPUUsage: 0.0})

		assertNotes(t, p.MelodyNotes, []float64{Sm.A3, Sm.A3, Sm.D4, Sm.A3})
	})

	t.Run("Full CPU pins the top of the scale", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{CPUUsage: 100.0})

		assertNotes(t, p.MelodyNotes, []float64{Sm.D6, Sm.C6, Sm.D6, Sm.D6})
	})

	t.Run("Midrange CPU walks the contour", func(t *testing.T) {
		// index 6 of thirteen
		p := mp.Map(&St.SystemMetrics{CPUUsage: 50.0})

		assertNotes(t, p.MelodyNotes, []float64{Sm.C5, Sm.A4, Sm.E5, Sm.C5})
	})

	t.Run("A configured scale changes the register", func(t *testing.T) {
		dorian := &Sm.Mapper{BaseTempo: Sm.DefaultBaseTempo, Scale: Sm.Dorian}
		p := dorian.Map(&St.SystemMetrics{CPUUsage: 0.0})

		assertFloat(t, p.MelodyNotes[0], Sm.D4)
	})

	t.Run("An empty scale falls back to the pentatonic", func(t *testing.T) {
		broken := &Sm.Mapper{BaseTempo: Sm.DefaultBaseTempo, Scale: []float64{}}
		p := broken.Map(&St.SystemMetrics{CPUUsage: 0.0})

		assertFloat(t, p.MelodyNotes[0], Sm.A3)
	})
}

func TestMapper_MemoryBass(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("Boundaries are strictly greater-than", func(t *testing.T) {
		tests := []struct {
			name   string
			memory float64
			want   float64
		}{
			{"comfortable memory stays high", 30.0, Sm.E3},
			{"exactly 50 stays high", 50.0, Sm.E3},
			{"just past 50 drops to mid", 50.01, Sm.A2 * 1.5},
			{"exactly 75 stays mid", 75.0, Sm.A2 * 1.5},
			{"just past 75 drops low", 75.01, Sm.A2},
			{"full memory is low", 100.0, Sm.A2},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := mp.Map(&St.SystemMetrics{MemoryUsage: tt.memory})
				assertFloat(t, p.BassNote, tt.want)
			})
		}
	})

	t.Run("Velocity follows pressure with a floor", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{MemoryUsage: 80.0})
		assertFloat(t, p.BassVelocity, 0.8)

		p = mp.Map(&St.SystemMetrics{MemoryUsage: 10.0})
		assertFloat(t, p.BassVelocity, 0.3)
	})
}

func TestMapper_DiskAndNetwork(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("Idle disk gives zero density", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{})
		assertFloat(t, p.RhythmDensity, 0.0)
	})

	t.Run("Ten megabytes per second is full density", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{DiskReadBytes: 6_000_000, DiskWriteBytes: 4_000_000})
		assertFloat(t, p.RhythmDensity, 1.0)
	})

	t.Run("Density is clamped past the ceiling", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{DiskReadBytes: 90_000_000})
		assertFloat(t, p.RhythmDensity, 1.0)
	})

	t.Run("Idle network holds the base tempo", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{})
		assertFloat(t, p.Tempo, Sm.DefaultBaseTempo)
	})

	t.Run("Saturated network pushes tempo up forty", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{NetworkRxBytes: 2_500_000, NetworkTxBytes: 2_500_000})
		assertFloat(t, p.Tempo, Sm.DefaultBaseTempo+40.0)
	})

	t.Run("The configured base tempo carries through", func(t *testing.T) {
		fast := &Sm.Mapper{BaseTempo: 120.0, Scale: Sm.MinorPentatonic}
		p := fast.Map(&St.SystemMetrics{})
		assertFloat(t, p.Tempo, 120.0)
	})
}

func TestRhythmPattern(t *testing.T) {
	t.Run("Idle disk keeps four on the floor", func(t *testing.T) {
		kicks, snares := Sm.RhythmPattern(0, 0, 0.0)

		assertSlots(t, kicks, []int{0, 4, 8, 12})
		assertSlots(t, snares, []int{4, 12})
	})

	t.Run("Density ladders are additive and strict", func(t *testing.T) {
		tests := []struct {
			name    string
			density float64
			kicks   []int
			snares  []int
		}{
			{"exactly 0.3 adds nothing", 0.3, []int{0, 4, 8, 12}, []int{4, 12}},
			{"past 0.3 doubles the kicks", 0.31, []int{0, 2, 4, 8, 10, 12}, []int{4, 12}},
			{"past 0.6 doubles the snares", 0.61, []int{0, 2, 4, 8, 10, 12}, []int{4, 6, 12, 14}},
			{"past 0.8 fills the off-slots", 0.81, []int{0, 1, 2, 3, 4, 8, 9, 10, 11, 12}, []int{4, 6, 12, 14}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				kicks, snares := Sm.RhythmPattern(0, 0, tt.density)
				assertSlots(t, kicks, tt.kicks)
				assertSlots(t, snares, tt.snares)
			})
		}
	})

	t.Run("More reads than writes earns a kick on fifteen", func(t *testing.T) {
		kicks, snares := Sm.RhythmPattern(100, 50, 0.0)

		assertSlots(t, kicks, []int{0, 4, 8, 12, 15})
		assertSlots(t, snares, []int{4, 12})
	})

	t.Run("More writes than reads earns a snare on fifteen", func(t *testing.T) {
		kicks, snares := Sm.RhythmPattern(50, 100, 0.0)

		assertSlots(t, kicks, []int{0, 4, 8, 12})
		assertSlots(t, snares, []int{4, 12, 15})
	})

	t.Run("A tie earns neither", func(t *testing.T) {
		kicks, snares := Sm.RhythmPattern(77, 77, 0.0)

		assertSlots(t, kicks, []int{0, 4, 8, 12})
		assertSlots(t, snares, []int{4, 12})
	})
}

func TestMapper_Temperature(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("Cold system keeps the filter closed and dry", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{Temperature: 30.0})

		assertFloat(t, p.FilterCutoff, 400.0)
		assertFloat(t, p.ReverbMix, 0.0)
	})

	t.Run("Hot system opens the filter fully", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{Temperature: 70.0})

		assertFloat(t, p.FilterCutoff, 3000.0)
		assertFloat(t, p.ReverbMix, 0.5)
	})

	t.Run("Halfway temperature lands halfway", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{Temperature: 50.0})

		assertFloat(t, p.FilterCutoff, 1700.0)
		assertFloat(t, p.ReverbMix, 0.25)
	})
}

func TestMapper_GPUVoice(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("No GPU suppresses the voice", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{})

		if p.GPUNotes != nil {
			t.Errorf("Expected no GPU notes, got %v", p.GPUNotes)
		}
		assertFloat(t, p.GPUIntensity, 0.0)
	})

	t.Run("An idle GPU is also silent", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{
			GPU: &St.GpuReading{Utilization: 0.05, MemoryUsed: 0},
		})

		if p.GPUNotes != nil {
			t.Errorf("Expected no GPU notes from an idle card, got %v", p.GPUNotes)
		}
	})

	t.Run("A working GPU sings in dorian", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{
			GPU: &St.GpuReading{
				Utilization: 50.0,
				Temperature: 80.0,
				MemoryUsed:  4096,
				MemoryTotal: 8192,
			},
		})

		// index 4 of ten
		assertNotes(t, p.GPUNotes, []float64{Sm.A4, Sm.C5, Sm.G4, Sm.A4})
		assertFloat(t, p.GPUIntensity, 0.5)
		assertFloat(t, p.GPUChorusDepth, 0.3)
		assertFloat(t, p.GPUFlangerRate, 3.0)
		assertFloat(t, p.VramReverbSize, 0.5)
	})

	t.Run("A cool GPU barely modulates", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{
			GPU: &St.GpuReading{
				Utilization: 20.0,
				Temperature: 40.0,
				MemoryUsed:  1,
				MemoryTotal: 8192,
			},
		})

		assertFloat(t, p.GPUChorusDepth, 0.0)
		assertFloat(t, p.GPUFlangerRate, 0.5)
	})
}

func TestMapper_LoadAverage(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("Voice count steps with sustained load", func(t *testing.T) {
		tests := []struct {
			load5  float64
			voices int
		}{
			{0.5, 1},
			{1.0, 2},
			{2.9, 2},
			{3.0, 3},
			{5.9, 3},
			{6.0, 4},
			{12.0, 4},
		}

		for _, tt := range tests {
			p := mp.Map(&St.SystemMetrics{LoadAvg5: tt.load5})
			if p.HarmonicVoices != tt.voices {
				t.Errorf("load %f: got %d voices, want %d", tt.load5, p.HarmonicVoices, tt.voices)
			}
		}
	})

	t.Run("Rising load drives the polyrhythm", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{LoadAvg1: 4.0, LoadAvg15: 2.0})
		assertFloat(t, p.PolyrhythmFactor, 0.5)
	})

	t.Run("Falling load is clamped to zero", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{LoadAvg1: 0.5, LoadAvg15: 3.0})
		assertFloat(t, p.PolyrhythmFactor, 0.0)
	})
}

func TestMapper_SwapDistortion(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("No swap configured means clean", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{SwapUsed: 500, SwapTotal: 0})
		assertFloat(t, p.SwapDistortion, 0.0)
	})

	t.Run("Light swap is gentle", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{SwapUsed: 10, SwapTotal: 100})
		assertFloat(t, p.SwapDistortion, 0.1)
	})

	t.Run("Past twenty percent it gets aggressive", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{SwapUsed: 60, SwapTotal: 100})
		assertFloat(t, p.SwapDistortion, 0.6)
	})

	t.Run("Full swap saturates", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{SwapUsed: 100, SwapTotal: 100})
		assertFloat(t, p.SwapDistortion, 1.0)
	})
}

func TestMapper_Battery(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("No battery plays at full volume", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{})

		assertFloat(t, p.BatteryVolumeMult, 1.0)
		assertFloat(t, p.BatteryTonality, 0.0)
	})

	t.Run("Charge level scales the volume", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{
			Battery: &St.Battery{ChargePercent: 50.0, State: St.BatteryCharging},
		})
		assertFloat(t, p.BatteryVolumeMult, 0.75)

		p = mp.Map(&St.SystemMetrics{
			Battery: &St.Battery{ChargePercent: 100.0, State: St.BatteryFull},
		})
		assertFloat(t, p.BatteryVolumeMult, 1.0)
	})

	t.Run("Tonality follows the charge direction", func(t *testing.T) {
		tests := []struct {
			name     string
			battery  St.Battery
			tonality float64
		}{
			{"charging leans bright", St.Battery{ChargePercent: 60, State: St.BatteryCharging}, 0.3},
			{"discharging leans dark", St.Battery{ChargePercent: 60, State: St.BatteryDischarging}, -0.3},
			{"low and draining is ominous", St.Battery{ChargePercent: 15, State: St.BatteryDischarging}, -0.7},
			{"full is brightest", St.Battery{ChargePercent: 100, State: St.BatteryFull}, 0.5},
			{"empty is darkest", St.Battery{ChargePercent: 0, State: St.BatteryEmpty}, -1.0},
			{"unknown is neutral", St.Battery{ChargePercent: 50, State: St.BatteryUnknown}, 0.0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := mp.Map(&St.SystemMetrics{Battery: &tt.battery})
				assertFloat(t, p.BatteryTonality, tt.tonality)
			})
		}
	})
}

func TestMapCorePatterns(t *testing.T) {
	t.Run("At most four cores get a pattern", func(t *testing.T) {
		patterns := Sm.MapCorePatterns([]float64{10, 20, 30, 40, 50, 60})

		if len(patterns) != Sm.MaxCorePatterns {
			t.Errorf("Expected %d patterns, got %d", Sm.MaxCorePatterns, len(patterns))
		}
	})

	t.Run("Patterns densify with load", func(t *testing.T) {
		tests := []struct {
			name  string
			usage float64
			want  []int
		}{
			{"idle core taps once", 10.0, []int{0}},
			{"exactly twenty taps twice", 20.0, []int{0, 8}},
			{"busy core holds quarters", 60.0, []int{0, 4, 8, 12}},
			{"pinned core rattles eighths", 90.0, []int{0, 2, 4, 6, 8, 10, 12, 14}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				patterns := Sm.MapCorePatterns([]float64{tt.usage})
				assertSlots(t, patterns[0], tt.want)
			})
		}
	})

	t.Run("Core index offsets the pattern", func(t *testing.T) {
		patterns := Sm.MapCorePatterns([]float64{10, 10, 10, 10})

		assertSlots(t, patterns[0], []int{0})
		assertSlots(t, patterns[1], []int{4})
		assertSlots(t, patterns[2], []int{8})
		assertSlots(t, patterns[3], []int{12})
	})

	t.Run("Pinned odd cores rattle the off-slots", func(t *testing.T) {
		patterns := Sm.MapCorePatterns([]float64{90, 90})

		assertSlots(t, patterns[1], []int{1, 3, 5, 7, 9, 11, 13, 15})
	})
}

func TestMapProcessMelodies(t *testing.T) {
	t.Run("At most three processes sing", func(t *testing.T) {
		procs := []St.Process{
			{Name: "one", CPUPercent: 90},
			{Name: "two", CPUPercent: 80},
			{Name: "three", CPUPercent: 70},
			{Name: "four", CPUPercent: 60},
			{Name: "five", CPUPercent: 50},
		}

		melodies := Sm.MapProcessMelodies(procs)

		if len(melodies) != Sm.MaxProcessMelodies {
			t.Errorf("Expected %d melodies, got %d", Sm.MaxProcessMelodies, len(melodies))
		}
		if melodies[0].Name != "one" || melodies[2].Name != "three" {
			t.Errorf("Melodies out of order: %v", melodies)
		}
	})

	t.Run("CPU share picks the pitch", func(t *testing.T) {
		melodies := Sm.MapProcessMelodies([]St.Process{{Name: "hot", CPUPercent: 100.0}})
		assertNotes(t, melodies[0].Notes, []float64{Sm.D6, Sm.D6})

		melodies = Sm.MapProcessMelodies([]St.Process{{Name: "cool", CPUPercent: 0.0}})
		assertNotes(t, melodies[0].Notes, []float64{Sm.E5, Sm.A5})
	})
}

func TestMapper_HihatDensity(t *testing.T) {
	mp := Sm.NewMapper()

	tests := []struct {
		count   int
		density float64
	}{
		{0, 0.0},
		{50, 0.0},
		{175, 0.5},
		{300, 1.0},
		{900, 1.0},
	}

	for _, tt := range tests {
		p := mp.Map(&St.SystemMetrics{ProcessCount: tt.count})
		assertFloat(t, p.HihatDensity, tt.density)
	}
}

func TestMapper_FanNoise(t *testing.T) {
	mp := Sm.NewMapper()

	t.Run("No fan data reads as silence", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{})
		assertFloat(t, p.FanNoiseLevel, 0.0)
	})

	t.Run("Average RPM normalizes over the typical range", func(t *testing.T) {
		p := mp.Map(&St.SystemMetrics{FanSpeeds: []St.Fan{{RPM: 500}}})
		assertFloat(t, p.FanNoiseLevel, 0.0)

		p = mp.Map(&St.SystemMetrics{FanSpeeds: []St.Fan{{RPM: 3000}}})
		assertFloat(t, p.FanNoiseLevel, 1.0)

		p = mp.Map(&St.SystemMetrics{FanSpeeds: []St.Fan{{RPM: 1000}, {RPM: 2500}}})
		assertFloat(t, p.FanNoiseLevel, 0.5)
	})
}

// A busy machine, end to end: pinned CPU, pressured memory, heavy
// read-leaning disk, silent network, cold sensors.
func TestMapper_FullCycle(t *testing.T) {
	mp := Sm.NewMapper()

	p := mp.Map(&St.SystemMetrics{
		CPUUsage:       100.0,
		MemoryUsage:    80.0,
		DiskReadBytes:  8_000_000,
		DiskWriteBytes: 4_000_000,
		Temperature:    30.0,
	})

	assertFloat(t, p.MelodyNotes[0], Sm.D6)
	assertFloat(t, p.BassNote, Sm.A2)
	assertFloat(t, p.BassVelocity, 0.8)
	assertFloat(t, p.RhythmDensity, 1.0)
	assertFloat(t, p.Tempo, Sm.DefaultBaseTempo)
	assertFloat(t, p.FilterCutoff, 400.0)
	assertFloat(t, p.ReverbMix, 0.0)

	assertSlots(t, p.KickHits, []int{0, 1, 2, 3, 4, 8, 9, 10, 11, 12, 15})
	assertSlots(t, p.SnareHits, []int{4, 6, 12, 14})
}

// Assert helpers for the mapper package tests //

func assertFloat(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("did not get correct value, got %g, want %g", got, want)
	}
}

func assertSlots(t *testing.T, got, want []int) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("did not get correct slots, got %v, want %v", got, want)
	}
}

func assertNotes(t *testing.T, got, want []float64) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("did not get correct notes, got %v, want %v", got, want)
	}
}
