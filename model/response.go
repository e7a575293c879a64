package model

import (
	"fmt"
	"time"
)

// Response is an observed DUT output edge, carrying an absolute
// monotonic timestamp.
type Response struct {
	Time   time.Time
	Output Signal
}

func (r Response) String() string {
	return fmt.Sprintf("%s\toutput: %s", r.Time, r.Output)
}

// Offset returns how long after t0 this response occurred.
func (r Response) Offset(t0 time.Time) time.Duration {
	return r.Time.Sub(t0)
}

// Pin returns the pin the response's signal is for, a convenience for
// callers filtering by pin without unpacking Output.
func (r Response) Pin() uint8 {
	return r.Output.Pin
}
