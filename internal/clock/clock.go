// Package clock provides the single source of time the room actors consult,
// so transitions stay deterministic given an injected "now" and tests never
// depend on wall-clock sleeps.
package clock

import "time"

// Clock returns the current instant. Production code uses Real; tests
// substitute Fixed, or their own Clock implementation, to drive the round
// scheduler without sleeping.
type Clock interface {
	Now() time.Time
}

// Real is the production clock: plain monotonic wall time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fixed returns the same instant every time it's asked, useful for unit
// tests of pure transitions that want a stable `now`.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }

// ISO8601 renders t the way every outbound snapshot/event field does:
// UTC, millisecond precision, RFC3339.
func ISO8601(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// EpochMillis is the internal representation used for ordering and
// duration arithmetic inside the core.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
