package model

import (
	"container/heap"
	"fmt"
	"strings"
	"time"

	"github.com/mdclyburn/clockwise/clockerr"
	"periph.io/x/periph/conn/gpio"
)

// OutputPins resolves a logical output pin number to a drivable GPIO
// handle. *pinmap.Mapping satisfies this without model importing
// pinmap, which would otherwise cycle back through pinmap's use of
// model.Response in Remap.
type OutputPins interface {
	GetOutput(pin uint8) (gpio.PinIO, error)
}

// Test is an immutable, declarative test: a stimulus timeline to
// drive, acceptance criteria, the application set the DUT must have
// loaded, and the trace points firmware should be instrumented for.
type Test struct {
	id         string
	actions    []Operation // kept sorted ascending by (TimeMS, arrival)
	criteria   []Criterion
	appIDs     map[string]struct{}
	tracePoint map[string]struct{}
}

// New constructs a Test, normalizing ops into time order.
//
// It fails if id is empty or if two operations share an identical
// (TimeMS, Pin, Level) — a duplicate action spec.md's invariants
// disallow.
func New(id string, ops []Operation, criteria []Criterion, appIDs []string, tracePoints []string) (*Test, error) {
	if strings.TrimSpace(id) == "" {
		return nil, clockerr.New(clockerr.IO, "test id must not be empty")
	}

	h := make(operationHeap, 0, len(ops))
	seen := make(map[[3]uint64]struct{}, len(ops))
	for i, op := range ops {
		key := [3]uint64{op.TimeMS, uint64(op.Input.Pin), uint64(op.Input.Level)}
		if _, dup := seen[key]; dup {
			return nil, clockerr.New(clockerr.IO, fmt.Sprintf(
				"duplicate action at time=%dms pin=%d level=%s", op.TimeMS, op.Input.Pin, op.Input.Level))
		}
		seen[key] = struct{}{}
		op.seq = i
		h = append(h, op)
	}
	heap.Init(&h)

	sorted := make([]Operation, 0, len(h))
	for h.Len() > 0 {
		sorted = append(sorted, heap.Pop(&h).(Operation))
	}

	appSet := make(map[string]struct{}, len(appIDs))
	for _, a := range appIDs {
		appSet[a] = struct{}{}
	}

	tpSet := make(map[string]struct{}, len(tracePoints))
	for _, tp := range tracePoints {
		tpSet[tp] = struct{}{}
	}

	return &Test{
		id:         id,
		actions:    sorted,
		criteria:   append([]Criterion(nil), criteria...),
		appIDs:     appSet,
		tracePoint: tpSet,
	}, nil
}

// ID returns the test's identifier.
func (t *Test) ID() string { return t.id }

// Actions returns the stimulus timeline in ascending time order.
func (t *Test) Actions() []Operation {
	out := make([]Operation, len(t.actions))
	copy(out, t.actions)
	return out
}

// Criteria returns the test's acceptance rules.
func (t *Test) Criteria() []Criterion {
	out := make([]Criterion, len(t.criteria))
	copy(out, t.criteria)
	return out
}

// AppIDs returns the application set this test requires loaded.
func (t *Test) AppIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(t.appIDs))
	for id := range t.appIDs {
		out[id] = struct{}{}
	}
	return out
}

// TracePoints returns the trace points this test requires the DUT to
// be instrumented for.
func (t *Test) TracePoints() []string {
	out := make([]string, 0, len(t.tracePoint))
	for tp := range t.tracePoint {
		out = append(out, tp)
	}
	return out
}

// PrepObserve returns the pins the observer must arm interrupts on:
// the union of tracePins and any pin referenced by a criterion.
func (t *Test) PrepObserve(tracePins []uint8) []uint8 {
	want := make(map[uint8]struct{}, len(tracePins))
	for _, p := range tracePins {
		want[p] = struct{}{}
	}
	for _, c := range t.criteria {
		for _, p := range c.Pins() {
			want[p] = struct{}{}
		}
	}

	out := make([]uint8, 0, len(want))
	for p := range want {
		out = append(out, p)
	}
	return out
}

// PrepMeter reports whether any criterion requires energy data; when
// false, metering is skipped entirely for this test.
func (t *Test) PrepMeter() bool {
	for _, c := range t.criteria {
		if c.NeedsEnergy() {
			return true
		}
	}
	return false
}

// Execute drives this test's stimulus timeline starting at t0,
// spin-waiting on the monotonic clock for sub-millisecond timing
// accuracy, and returns the resulting Execution.
//
// It fails with clockerr.IO if a targeted pin is not a drivable
// output, or clockerr.UnknownPin if it is outside the mapping.
func (t *Test) Execute(t0 time.Time, outputs OutputPins) (Execution, error) {
	for _, op := range t.actions {
		target := t0.Add(time.Duration(op.TimeMS) * time.Millisecond)
		for time.Now().Before(target) {
			// Spin-wait: sub-millisecond accuracy requires busy-looping
			// on the monotonic clock rather than a timed sleep, whose
			// scheduler-dependent variance is too large here.
		}

		pin, err := outputs.GetOutput(op.Input.Pin)
		if err != nil {
			return Execution{}, err
		}

		var level gpio.Level
		if op.Input.Level == High {
			level = gpio.High
		} else {
			level = gpio.Low
		}
		if err := pin.Out(level); err != nil {
			return Execution{}, clockerr.Wrap(clockerr.IO, "driving output pin", err)
		}
	}

	return Execution{Start: t0, Duration: time.Since(t0)}, nil
}

func (t *Test) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test: %s\n", t.id)
	b.WriteString("Operations =====\n")
	for _, op := range t.actions {
		fmt.Fprintf(&b, "%s\n", op)
	}
	return b.String()
}
