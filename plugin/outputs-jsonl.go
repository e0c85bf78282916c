package plugin

/*
	JSONL History

	This adapter appends one JSON object per cycle to a plain file.

	It is the greppable alternative to BadgerDB: no indexes, no
	compression, queries scan the whole file. Suited to short runs
	and to piping cycles into other tools.
*/

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	St "github.com/maroda/syssonic/types"
)

type JSONLHistory struct {
	MU   sync.Mutex
	File *os.File
	Enc  *json.Encoder
	Path string
}

func NewJSONLHistory(path string) (*JSONLHistory, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Error("JSONLHistory failed to open file", slog.Any("error", err))
		return nil, fmt.Errorf("history file error: %w", err)
	}

	slog.Info("JSONLHistory opened", slog.String("path", path))

	return &JSONLHistory{
		File: file,
		Enc:  json.NewEncoder(file),
		Path: path,
	}, nil
}

// WriteCycle appends one cycle as a single JSON line
func (jh *JSONLHistory) WriteCycle(cycle *St.CycleEvent) error {
	jh.MU.Lock()
	defer jh.MU.Unlock()

	return jh.writeLocked(cycle)
}

// WriteBatch appends each cycle in order
func (jh *JSONLHistory) WriteBatch(cycles []*St.CycleEvent) error {
	jh.MU.Lock()
	defer jh.MU.Unlock()

	for _, c := range cycles {
		if err := jh.writeLocked(c); err != nil {
			return err
		}
	}
	return nil
}

func (jh *JSONLHistory) writeLocked(cycle *St.CycleEvent) error {
	if err := jh.Enc.Encode(cycle); err != nil {
		slog.Error("JSONLHistory failed to encode cycle",
			slog.Any("error", err),
			slog.Time("cycleTime", cycle.StartTime))
		return fmt.Errorf("cycle encode error: %w", err)
	}
	return nil
}

// QueryRange scans the whole file and keeps cycles inside the range.
// The bounds are exclusive to match the BadgerDB adapter.
func (jh *JSONLHistory) QueryRange(start, end time.Time) ([]*St.CycleEvent, error) {
	jh.MU.Lock()
	defer jh.MU.Unlock()

	file, err := os.Open(jh.Path)
	if err != nil {
		slog.Error("JSONLHistory failed to open file for reading", slog.Any("error", err))
		return nil, fmt.Errorf("history file error: %w", err)
	}
	defer file.Close()

	var cycles []*St.CycleEvent

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var cycle St.CycleEvent
		if err := json.Unmarshal(line, &cycle); err != nil {
			// A torn final line from a crashed run is not fatal
			slog.Error("JSONLHistory skipping undecodable line", slog.Any("error", err))
			continue
		}

		if cycle.StartTime.After(start) && cycle.StartTime.Before(end) {
			cycles = append(cycles, &cycle)
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Error("JSONLHistory failed to scan file", slog.Any("error", err))
		return nil, fmt.Errorf("history scan error: %w", err)
	}

	slog.Info("JSONLHistory QueryRange successful", slog.Int("count", len(cycles)))

	return cycles, nil
}

// Flush forces the file contents to disk
func (jh *JSONLHistory) Flush() error {
	jh.MU.Lock()
	defer jh.MU.Unlock()

	return jh.File.Sync()
}

// Close syncs and closes the file
func (jh *JSONLHistory) Close() error {
	flushErr := jh.Flush()
	closeErr := jh.File.Close()

	if flushErr != nil {
		slog.Error("JSONLHistory failed to sync on close", slog.Any("error", flushErr))
		return fmt.Errorf("sync failed, close may have failed: %v", flushErr)
	}

	if closeErr != nil {
		slog.Error("JSONLHistory failed to close file", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %v", closeErr)
	}

	slog.Info("JSONLHistory closed successfully")
	return nil
}

func (jh *JSONLHistory) Type() string { return "JSONL" }
