package domain

import "time"

// Clock abstracts time access so session expiry and rate-limit windows can be
// driven by a controllable clock in tests instead of real sleeps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock implementation used outside of tests.
var SystemClock Clock = systemClock{}
