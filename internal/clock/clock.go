// Package clock provides an abstraction for time operations to improve testability.
// The signing timestamp is captured once per run through a Clock so tests can
// pin it.
package clock

import "time"

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.T
}

// UnixSeconds returns the clock's current time as unsigned seconds since the
// Unix epoch. Times before the epoch clamp to zero.
func UnixSeconds(c Clock) uint64 {
	secs := c.Now().Unix()
	if secs < 0 {
		return 0
	}
	return uint64(secs)
}

// Ensure implementations satisfy Clock.
var (
	_ Clock = RealClock{}
	_ Clock = FixedClock{}
)
