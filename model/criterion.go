package model

// Criterion is a test acceptance rule. The engine treats criteria
// opaquely except where it must decide which pins to watch
// (Pins) and whether metering is required (NeedsEnergy) — evaluating
// whether a criterion actually passed is outside the execution
// engine's core.
type Criterion interface {
	// Pins returns the logical pins this criterion cares about, if any.
	Pins() []uint8
	// NeedsEnergy reports whether this criterion requires energy
	// samples to evaluate.
	NeedsEnergy() bool
}

// ResponseOn is satisfied when the DUT produces any response on Pin.
type ResponseOn struct {
	Pin uint8
}

// Pins implements Criterion.
func (r ResponseOn) Pins() []uint8 { return []uint8{r.Pin} }

// NeedsEnergy implements Criterion.
func (r ResponseOn) NeedsEnergy() bool { return false }

// EnergyBudget is satisfied when a named meter's draw stays under
// MaxMilliamps for the duration of a test.
type EnergyBudget struct {
	MeterID      string
	MaxMilliamps uint32
}

// Pins implements Criterion.
func (e EnergyBudget) Pins() []uint8 { return nil }

// NeedsEnergy implements Criterion.
func (e EnergyBudget) NeedsEnergy() bool { return true }

var (
	_ Criterion = ResponseOn{}
	_ Criterion = EnergyBudget{}
)
