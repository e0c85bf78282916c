package plugin

/*

	The Adapter sits aside /syssonic/
	Contains core interfaces for Plugin

*/

import (
	"time"

	St "github.com/maroda/syssonic/types"
)

// HistoryAdapter defines a place for finished sonification cycles
// to go, cycle-by-cycle or in batches if supported by the store.
// A cycle holds the snapshot that was measured and the musical
// parameters it mapped to, keyed by its start time.
type HistoryAdapter interface {
	WriteCycle(cycle *St.CycleEvent) error                     // Write singleton cycle data
	WriteBatch(cycles []*St.CycleEvent) error                  // Write batches of cycles
	QueryRange(start, end time.Time) ([]*St.CycleEvent, error) // Time range query tool
	Flush() error                                              // Flush any buffered data
	Close() error                                              // Close the adapter and release resources
	Type() string                                              // ID for output
}
