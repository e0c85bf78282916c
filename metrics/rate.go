package syssonic

/*
	CalcByteRate

	Turns two readings of a monotonic byte counter into
	a bytes-per-second rate for the Collector
*/

import (
	"time"
)

// RateTracker remembers the previous reading of each named counter
// so the next reading can be turned into a per-second rate.
// One tracker belongs to one Collector and inherits its
// single-writer rule.
type RateTracker struct {
	PrevVal  map[string]uint64
	PrevTime map[string]time.Time
}

func NewRateTracker() *RateTracker {
	return &RateTracker{
		PrevVal:  make(map[string]uint64),
		PrevTime: make(map[string]time.Time),
	}
}

// Rate returns the per-second rate for a counter since its last
// observation, then stores the new reading. The first observation
// of any counter returns 0.
func (rt *RateTracker) Rate(counter string, current uint64, now time.Time) uint64 {
	prev, exists := rt.PrevVal[counter]
	prevTime := rt.PrevTime[counter]

	rt.PrevVal[counter] = current
	rt.PrevTime[counter] = now

	if !exists {
		// No rate, first time reading
		return 0
	}

	return CalcByteRate(current, prev, now, prevTime)
}

// CalcByteRate is a generic rate calculator that
// receives two sequential counter readings and their timestamps
// and returns bytes per second. Counter resets and wraparound
// saturate to zero instead of going negative.
func CalcByteRate(curr, prev uint64, currtime, prevtime time.Time) uint64 {
	timeDelta := currtime.Sub(prevtime).Seconds()
	if timeDelta <= 0 {
		return 0
	}

	// Saturating subtraction, a reset counter reads as silence
	if curr < prev {
		return 0
	}
	delta := curr - prev

	return uint64(float64(delta) / timeDelta)
}
