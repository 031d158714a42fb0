package domain

import "time"

// Clock is the timestamp source consumed for created_at, completed_at and
// expiry checks. It must be monotonically non-decreasing between calls
// within one process.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
