package model

import (
	"time"

	"github.com/mdclyburn/clockwise/sw"
)

// EnergySample is one timestamped energy-meter reading.
type EnergySample struct {
	Time  time.Time
	Value float32
}

// Evaluation is the output of running one Test: either a Failed
// outcome carrying the error that aborted the test, or a Completed
// outcome carrying the full response bundle.
type Evaluation struct {
	TestID string

	// Spec is nil when the test failed before a platform reconfigure
	// could produce one.
	Spec *sw.Spec

	// Err is non-nil for a Failed evaluation; Failed() reports this.
	Err error

	Execution     Execution
	GPIOResponses []Response
	Traces        []SerialTrace
	Energy        map[string][]EnergySample
}

// Failed reports whether this evaluation represents a failed test.
func (e Evaluation) Failed() bool {
	return e.Err != nil
}
