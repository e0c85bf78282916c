package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	St "github.com/maroda/syssonic/types"
)

// DefaultBatchSize is how many cycles buffer up before a write.
// At the default cadence of one cycle per 16s this flushes about
// once every four minutes.
const DefaultBatchSize = 16

type BadgerHistory struct {
	MU        sync.Mutex
	DB        *badger.DB
	BatchSize int
	Buffer    []*St.CycleEvent
}

func NewBadgerHistory(path string, batchSize int) (*BadgerHistory, error) {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerHistory failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerHistory opened",
		slog.String("path", path),
		slog.Int("batchSize", batchSize))

	return &BadgerHistory{
		DB:        db,
		BatchSize: batchSize,
		Buffer:    make([]*St.CycleEvent, 0, batchSize),
	}, nil
}

// WriteCycle queues up a batch of cycles,
// when batchsize is reached, it calls Flush()
// which calls WriteBatch() with the new batch
func (bh *BadgerHistory) WriteCycle(cycle *St.CycleEvent) error {
	bh.MU.Lock()
	defer bh.MU.Unlock()

	bh.Buffer = append(bh.Buffer, cycle)
	if len(bh.Buffer) >= bh.BatchSize {
		return bh.flushLocked() // private Flush that does not lock
	}
	return nil
}

// WriteBatch performs the key/value creation to be stored
// and actually calls BadgerDB to write the data
func (bh *BadgerHistory) WriteBatch(cycles []*St.CycleEvent) error {
	wb := bh.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, c := range cycles {
		k := CycleKey(c)
		v, err := CycleEncode(c)
		if err != nil {
			slog.Error("BadgerHistory failed to encode cycle",
				slog.Any("error", err),
				slog.Time("cycleTime", c.StartTime))
			return fmt.Errorf("cycle encode error: %w", err)
		}
		if err := wb.Set(k, v); err != nil {
			slog.Error("BadgerHistory failed to set key in batch",
				slog.Any("error", err),
				slog.Time("cycleTime", c.StartTime),
				slog.String("source", c.Source))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerHistory failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	return nil
}

// Flush is the public method that blocks,
// it sends data to WriteBatch and then clears the buffer
func (bh *BadgerHistory) Flush() error {
	bh.MU.Lock()
	defer bh.MU.Unlock()

	if len(bh.Buffer) == 0 {
		return nil
	}

	return bh.flushLocked()
}

// flushLocked mimics Flush without locking, called by WriteCycle
func (bh *BadgerHistory) flushLocked() error {
	err := bh.WriteBatch(bh.Buffer) // Delegate to WriteBatch
	bh.Buffer = bh.Buffer[:0]       // Clear but keep capacity
	return err
}

// Close returns a Flush error but still attempts to close
func (bh *BadgerHistory) Close() error {
	slog.Info("BadgerHistory closing, flushing buffer",
		slog.Int("bufferSize", len(bh.Buffer)))
	flushErr := bh.Flush()
	closeErr := bh.DB.Close()

	if flushErr != nil {
		slog.Error("BadgerHistory failed to flush on close", slog.Any("error", flushErr))
		return fmt.Errorf("flush failed, close may have failed: %v", flushErr)
	}

	if closeErr != nil {
		slog.Error("BadgerHistory failed to close database", slog.Any("error", closeErr))
		return fmt.Errorf("close failed: %v", closeErr)
	}

	slog.Info("BadgerHistory closed successfully")
	return nil
}

func (bh *BadgerHistory) Type() string { return "BadgerDB" }

// CycleKey creates a composite key
// timestamp + separator + first five letters of the source
func CycleKey(cycle *St.CycleEvent) []byte {
	key := make([]byte, 8+1+5)

	// Using positive BigEndian integer to convert timestamp
	// so keys can be sorted chronologically by BadgerDB
	binary.BigEndian.PutUint64(key[0:8], uint64(cycle.StartTime.UnixNano()))

	key[8] = '|'

	// Keep source name at five chars
	sBytes := []byte(cycle.Source)
	n := len(sBytes)
	if n > 5 {
		n = 5
	}
	copy(key[9:9+n], sBytes[:n])

	return key
}

// CycleEncode serializes the cycle event struct for data storage
func CycleEncode(c *St.CycleEvent) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CycleDecode deserializes the cycle event data
func CycleDecode(data []byte) (*St.CycleEvent, error) {
	var c St.CycleEvent
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	err := dec.Decode(&c)
	return &c, err
}

// QueryRange retrieves cycles within a time range. Keys sort
// chronologically, so iteration can seek to the start and stop
// past the end instead of scanning the whole store.
func (bh *BadgerHistory) QueryRange(start, end time.Time) ([]*St.CycleEvent, error) {
	var cycles []*St.CycleEvent

	seek := make([]byte, 8)
	binary.BigEndian.PutUint64(seek, uint64(start.UnixNano()))

	// db.View() callback
	// BadgerDB provides a transaction in which to get item.Value()
	err := bh.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.Valid(); it.Next() {
			item := it.Item()

			key := item.Key()
			if len(key) >= 8 {
				nanos := int64(binary.BigEndian.Uint64(key[0:8]))
				if time.Unix(0, nanos).After(end) {
					break
				}
			}

			// item.Value() callback
			// BadgerDB passes bytes to the anon func
			err := item.Value(func(val []byte) error {
				cycle, err := CycleDecode(val)
				if err != nil {
					slog.Error("BadgerHistory failed to decode cycle", slog.Any("error", err))
					return fmt.Errorf("cycle decode error: %w", err)
				}

				// Filter by time range
				if cycle.StartTime.After(start) && cycle.StartTime.Before(end) {
					cycles = append(cycles, cycle)
				}

				return nil
			})
			if err != nil {
				slog.Error("BadgerHistory callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})

	slog.Info("BadgerHistory QueryRange successful", slog.Int("count", len(cycles)))

	return cycles, err
}
