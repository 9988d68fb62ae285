package tree

import (
	"sync/atomic"
	"time"
)

const defaultMinPollPeriod = 5 * time.Second

// health holds the three cycle-health facts the Query Interface exposes:
// the opaque timestamp of the last cycle start, the
// measured duration of the last cycle, and the configured minimum
// inter-cycle period. Each is written atomically by the poll engine and
// read without locking by any number of callers.
type health struct {
	timestamp     atomic.Value // string
	pollPeriod    atomic.Int64 // nanoseconds
	minPollPeriod atomic.Int64 // nanoseconds
}

func (h *health) init() {
	h.timestamp.Store("")
	h.minPollPeriod.Store(int64(defaultMinPollPeriod))
}

// Timestamp returns the opaque start time of the most recently started
// cycle, formatted as RFC3339Nano, or "" before the first cycle.
func (t *Tree) Timestamp() string {
	v := t.health.timestamp.Load()
	if v == nil {
		return ""
	}
	return v.(string)
}

// SetTimestamp stamps the start of a new cycle. Written atomically
// before any reads happen within that cycle.
func (t *Tree) SetTimestamp(ts time.Time) {
	t.health.timestamp.Store(ts.Format(time.RFC3339Nano))
}

// PollPeriod returns the measured duration of the last completed cycle.
func (t *Tree) PollPeriod() time.Duration {
	return time.Duration(t.health.pollPeriod.Load())
}

// SetPollPeriod records the measured duration of the cycle that just
// finished. Written atomically at cycle end.
func (t *Tree) SetPollPeriod(d time.Duration) {
	t.health.pollPeriod.Store(int64(d))
}

// MinPollPeriod returns the configured floor on inter-cycle spacing.
func (t *Tree) MinPollPeriod() time.Duration {
	return time.Duration(t.health.minPollPeriod.Load())
}

// SetMinPollPeriod installs a new floor. Negative durations are rejected
// silently (a no-op returning false) rather than as an error, matching
// the setter's defined behavior of ignoring invalid input rather than
// surfacing it to the caller.
func (t *Tree) SetMinPollPeriod(d time.Duration) bool {
	if d < 0 {
		return false
	}
	t.health.minPollPeriod.Store(int64(d))
	return true
}
