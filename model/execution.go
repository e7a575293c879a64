package model

import "time"

// Execution records when a test's stimulus timeline began and how
// long it ran.
type Execution struct {
	Start    time.Time
	Duration time.Duration
}
