// Package sw defines the platform collaborator: the external
// interface the execution engine uses to rebuild/reflash DUT firmware
// and manage its loaded application set. The build toolchain itself
// (make, a board-specific loader) is treated as a subprocess the
// engine invokes and waits on; nothing about its internals is
// specified here beyond the environment contract it must honor.
package sw

import (
	"encoding/json"
	"os"
)

// Spec describes which trace points a firmware build was instrumented
// for. The order of TracePoints assigns each point its counter ID (see
// Label). Spec carries no trace-pin ordering: the trace reconstructor
// takes each trace pin's bit significance from the pin mapping.
type Spec struct {
	// TracePoints lists the trace point names the firmware was built
	// to emit; the name at index i is the label for counter ID i+1.
	TracePoints []string `json:"trace_points"`
}

// NewSpec builds a Spec for the given trace points, preserving order.
func NewSpec(tracePoints []string) *Spec {
	cp := make([]string, len(tracePoints))
	copy(cp, tracePoints)
	return &Spec{TracePoints: cp}
}

// Label returns the trace point name assigned to a counter ID, where
// counter IDs are assigned densely starting at 1 in TracePoints'
// order. It reports false when the Spec carries no point for that ID,
// which the trace reconstructor surfaces as the "?" label.
func (s *Spec) Label(counterID int) (string, bool) {
	if s == nil || counterID < 1 || counterID > len(s.TracePoints) {
		return "", false
	}
	return s.TracePoints[counterID-1], true
}

// Write serializes the Spec to path for the build toolchain to read
// back via TRACE_SPEC_PATH.
func (s *Spec) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSpec reads back a Spec file written by Write.
func ReadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
