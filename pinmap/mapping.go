// Package pinmap maps the testbed's logical pin numbers to GPIO
// handles: the set of pins the testbed drives as DUT inputs, the set
// it observes as DUT outputs, and the subset of the latter dedicated
// to emitting serial trace frames.
package pinmap

import (
	"sort"

	"github.com/mdclyburn/clockwise/clockerr"
	"github.com/mdclyburn/clockwise/model"
	"periph.io/x/periph/conn/gpio"
)

// Mapping is an immutable description of a testbed's pin topology.
type Mapping struct {
	outputs   map[uint8]gpio.PinIO // logical pin -> handle the testbed drives (DUT input)
	inputs    map[uint8]gpio.PinIO // logical pin -> handle the testbed observes (DUT output)
	tracePins []uint8              // ordered subset of inputs' keys, LSB first
	physToLog map[uint8]uint8      // physical pin number -> logical pin number
}

// New validates and builds a Mapping.
//
// outputs are the logical pins the testbed drives toward the DUT;
// inputs are the logical pins the testbed observes from the DUT.
// tracePins must be a subset of inputs' keys, given in ascending
// bit-significance order. physToLog translates the physical pin
// number a GPIO interrupt fires on back to the test's logical pin
// number (see Remap); a nil map is treated as the identity mapping.
func New(outputs, inputs map[uint8]gpio.PinIO, tracePins []uint8, physToLog map[uint8]uint8) (*Mapping, error) {
	for _, p := range tracePins {
		if _, ok := inputs[p]; !ok {
			return nil, clockerr.New(clockerr.UnknownPin, "trace pin not among observed inputs")
		}
	}

	ordered := make([]uint8, len(tracePins))
	copy(ordered, tracePins)

	m := &Mapping{
		outputs:   outputs,
		inputs:    inputs,
		tracePins: ordered,
		physToLog: physToLog,
	}
	return m, nil
}

// GetOutput returns the GPIO handle for the logical output pin, or
// UnknownPin if pin is not in the mapping.
func (m *Mapping) GetOutput(pin uint8) (gpio.PinIO, error) {
	p, ok := m.outputs[pin]
	if !ok {
		return nil, clockerr.New(clockerr.UnknownPin, "unknown output pin")
	}
	return p, nil
}

// GetInput returns the GPIO handle for the logical input pin, or
// UnknownPin if pin is not in the mapping.
func (m *Mapping) GetInput(pin uint8) (gpio.PinIO, error) {
	p, ok := m.inputs[pin]
	if !ok {
		return nil, clockerr.New(clockerr.UnknownPin, "unknown input pin")
	}
	return p, nil
}

// InputPins returns every logical input pin number, ascending.
func (m *Mapping) InputPins() []uint8 {
	out := make([]uint8, 0, len(m.inputs))
	for p := range m.inputs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TracePinOrder returns the trace pins in ascending bit-significance
// order (index 0 is bit 0).
func (m *Mapping) TracePinOrder() []uint8 {
	out := make([]uint8, len(m.tracePins))
	copy(out, m.tracePins)
	return out
}

// IsTracePin reports whether pin is one of the designated trace pins.
func (m *Mapping) IsTracePin(pin uint8) bool {
	for _, p := range m.tracePins {
		if p == pin {
			return true
		}
	}
	return false
}

// Remap translates a Response observed on a physical pin number into
// the test's logical pin number, per the configured physToLog table.
func (m *Mapping) Remap(r model.Response) model.Response {
	if m.physToLog == nil {
		return r
	}
	logical, ok := m.physToLog[r.Output.Pin]
	if !ok {
		return r
	}
	r.Output.Pin = logical
	return r
}
