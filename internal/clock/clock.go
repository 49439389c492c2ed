package clock

import "time"

// Clock abstracts time for testable session durations.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
