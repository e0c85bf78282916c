package syssonic

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/sethvargo/go-envconfig"
)

/*

	Runtime configuration is layered:
	defaults, then an optional JSON file
	named by SYSSONIC_CONFIG, then
	SYSSONIC_* environment overrides.

*/

// Config holds every tunable for a sonification run.
// JSON fields absent from the file keep their defaults,
// env vars are only applied when set.
type Config struct {
	Volume           float64 `json:"volume" env:"SYSSONIC_VOLUME"`
	UpdateIntervalMS int     `json:"update_interval_ms" env:"SYSSONIC_UPDATE_INTERVAL_MS"`
	SampleCount      int     `json:"sample_count" env:"SYSSONIC_SAMPLE_COUNT"`
	BaseTempo        float64 `json:"base_tempo" env:"SYSSONIC_BASE_TEMPO"`
	ScaleType        string  `json:"scale_type" env:"SYSSONIC_SCALE_TYPE"`
	EnableGPU        bool    `json:"enable_gpu_monitoring" env:"SYSSONIC_ENABLE_GPU"`
	EnableBattery    bool    `json:"enable_battery_monitoring" env:"SYSSONIC_ENABLE_BATTERY"`
	EnableFans       bool    `json:"enable_fan_monitoring" env:"SYSSONIC_ENABLE_FANS"`
	ListenAddr       string  `json:"listen_addr" env:"SYSSONIC_LISTEN_ADDR"`
	HistoryPath      string  `json:"history_path" env:"SYSSONIC_HISTORY_PATH"`
	HistoryStore     string  `json:"history_store" env:"SYSSONIC_HISTORY_STORE"`
	Engine           string  `json:"engine" env:"SYSSONIC_ENGINE"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() *Config {
	return &Config{
		Volume:           0.8,
		UpdateIntervalMS: 16000,
		SampleCount:      3,
		BaseTempo:        90.0,
		ScaleType:        "minor_pentatonic",
		EnableGPU:        true,
		EnableBattery:    true,
		EnableFans:       true,
		ListenAddr:       ":8090",
		HistoryPath:      "",
		HistoryStore:     "badger",
		Engine:           "synth",
	}
}

// NewConfig assembles the full configuration:
// file named by SYSSONIC_CONFIG when present, env on top.
// A missing EnvVar means defaults only, which is not an error.
func NewConfig(ctx context.Context) (*Config, error) {
	config := DefaultConfig()

	filename := FillEnvVar("SYSSONIC_CONFIG")
	if filename != "ENOENT" {
		loaded, err := LoadConfigFileName(filename)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := envconfig.Process(ctx, config); err != nil {
		slog.Error("could not read environment", slog.Any("Error", err))
		return nil, err
	}

	config.normalize()
	return config, nil
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("Error", err))
		return nil, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

func LoadConfig(file *os.File) (*Config, error) {
	// open file
	cf, err := os.Open(file.Name())
	if err != nil {
		slog.Error("could not open file")
		return nil, err
	}
	defer cf.Close()

	// decode json over the defaults so absent fields keep them
	config := DefaultConfig()
	decoder := json.NewDecoder(cf)
	if err := decoder.Decode(config); err != nil {
		slog.Error("could not decode file")
		return nil, err
	}

	return config, nil
}

// normalize corrects out-of-range values instead of failing the run
func (c *Config) normalize() {
	if c.Volume < 0 || c.Volume > 1 {
		slog.Warn("Volume out of range, using default", slog.Float64("Volume", c.Volume))
		c.Volume = 0.8
	}
	if c.UpdateIntervalMS <= 0 {
		c.UpdateIntervalMS = 16000
	}
	if c.SampleCount < 1 {
		c.SampleCount = 3
	}
	if c.BaseTempo <= 0 {
		c.BaseTempo = 90.0
	}
	if c.ScaleType == "" {
		c.ScaleType = "minor_pentatonic"
	}
	if c.HistoryStore == "" {
		c.HistoryStore = "badger"
	}
	if c.Engine == "" {
		c.Engine = "synth"
	}
}
