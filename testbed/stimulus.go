package testbed

import (
	"time"

	"github.com/mdclyburn/clockwise/model"
)

// Drive is the C7 stimulus driver: it emits a test's stimulus timeline at
// wall-clock offsets from t0. The spin-wait timing loop itself lives
// on model.Test (model.Test.Execute) since the timeline and the
// acceptance criteria it is paired with are both owned by the same
// immutable Test value; Drive exists as the named seam spec.md's
// component table expects the executor to call through.
func Drive(test *model.Test, t0 time.Time, outputs model.OutputPins) (model.Execution, error) {
	return test.Execute(t0, outputs)
}
