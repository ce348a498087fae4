package frame

import "time"

// Clock provides time for frame ticks. The default implementation uses
// system time. Tests inject a fake clock to control animation timing
// deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock uses system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
