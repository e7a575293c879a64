package testbed

import (
	"log"
	"time"

	"github.com/mdclyburn/clockwise/model"
	"github.com/mdclyburn/clockwise/pinmap"
	"github.com/mdclyburn/clockwise/trace"
	"golang.org/x/sync/errgroup"
)

// Executor is the C8 orchestrator: it owns the Testbed and the
// platform collaborator exclusively, drives each test's lifecycle in
// turn, and assembles the resulting Evaluation.
type Executor struct {
	tb       *Testbed
	barrier  *Barrier
	observer *Observer
	metering *Metering
}

// NewExecutor wires an Executor and its two workers around a shared
// three-party barrier.
func NewExecutor(tb *Testbed) *Executor {
	barrier := NewBarrier(3)
	return &Executor{
		tb:       tb,
		barrier:  barrier,
		observer: NewObserver(tb.Mapping, barrier, tb.BarrierTimeout),
		metering: NewMetering(tb.Meters, barrier, tb.BarrierTimeout, tb.SampleInterval),
	}
}

// Run drives every test in order, producing exactly one Evaluation per
// test, in input order (spec.md §8 invariant 1). A per-test failure
// (reconfigure, load reconciliation) is recovered locally as an
// Evaluation.Failed and does not stop the run; a worker spawn or
// barrier failure is fatal and aborts it.
func (ex *Executor) Run(tests []*model.Test) ([]*model.Evaluation, error) {
	var eg errgroup.Group
	eg.Go(ex.observer.Run)
	eg.Go(ex.metering.Run)

	evals := make([]*model.Evaluation, 0, len(tests))
	for _, test := range tests {
		eval, err := ex.runOne(test)
		if err != nil {
			// The barrier/worker contract is broken; stop publishing
			// further tests, release the workers with a nil test, and
			// join whatever state they are in.
			ex.observer.Publish(nil)
			ex.metering.Publish(nil)
			_ = ex.barrier.Wait(ex.tb.BarrierTimeout)
			_ = eg.Wait()
			return evals, err
		}
		evals = append(evals, eval)
	}

	ex.observer.Publish(nil)
	ex.metering.Publish(nil)
	if err := ex.barrier.Wait(ex.tb.BarrierTimeout); err != nil {
		return evals, err
	}

	// Teardown join errors are logged and otherwise ignored; the run
	// already produced every Evaluation it is going to.
	if err := eg.Wait(); err != nil {
		log.Printf("testbed: joining workers: %v", err)
	}
	return evals, nil
}

func (ex *Executor) runOne(test *model.Test) (*model.Evaluation, error) {
	spec, err := ex.tb.Platform.Reconfigure(test.TracePoints())
	if err != nil {
		return &model.Evaluation{TestID: test.ID(), Err: err}, nil
	}

	if err := ex.loadApps(test); err != nil {
		return &model.Evaluation{TestID: test.ID(), Spec: spec, Err: err}, nil
	}

	ex.observer.Publish(test)
	ex.metering.Publish(test)

	if err := ex.barrier.Wait(ex.tb.BarrierTimeout); err != nil { // "ready"
		return nil, err
	}
	if err := ex.barrier.Wait(ex.tb.BarrierTimeout); err != nil { // "go"
		return nil, err
	}

	t0 := time.Now()
	exec, execErr := Drive(test, t0, ex.tb.Mapping)

	if err := ex.barrier.Wait(ex.tb.BarrierTimeout); err != nil { // "done"
		return nil, err
	}

	responses := drainResponses(ex.observer.Responses())
	samples := drainSamples(ex.metering.Samples())

	if execErr != nil {
		return &model.Evaluation{TestID: test.ID(), Spec: spec, Err: execErr}, nil
	}

	traceEdges, other := partitionByTracePin(responses, ex.tb.Mapping)
	traces := trace.Reconstruct(traceEdges, spec, pinBitSignificance(ex.tb.Mapping), ex.tb.TraceConfig)

	eval := &model.Evaluation{
		TestID:        test.ID(),
		Spec:          spec,
		Execution:     exec,
		GPIOResponses: other,
		Traces:        traces,
		Energy:        samples,
	}

	if ex.tb.Writer != nil {
		if err := ex.tb.Writer.SaveOutput(eval); err != nil {
			// A persistence failure doesn't invalidate a result the
			// engine already produced correctly; log it rather than
			// turning a completed evaluation into a failed one.
			log.Printf("testbed: saving output for %s: %v", test.ID(), err)
		}
	}

	return eval, nil
}

// loadApps reconciles the DUT's loaded application set to test's,
// removing leftovers before extending — spec.md §4.8's set-difference
// rule, so the DUT is always reduced to the minimal common set before
// being grown.
func (ex *Executor) loadApps(test *model.Test) error {
	want := test.AppIDs()
	have := ex.tb.Platform.LoadedSoftware()

	for app := range have {
		if _, keep := want[app]; !keep {
			if err := ex.tb.Platform.Unload(app); err != nil {
				return err
			}
		}
	}
	for app := range want {
		if _, present := have[app]; !present {
			if err := ex.tb.Platform.Load(app); err != nil {
				return err
			}
		}
	}
	return nil
}

func drainResponses(ch <-chan *model.Response) []model.Response {
	var out []model.Response
	for r := range ch {
		if r == nil {
			return out
		}
		out = append(out, *r)
	}
	return out
}

func drainSamples(ch <-chan *MeterSample) map[string][]model.EnergySample {
	out := make(map[string][]model.EnergySample)
	for s := range ch {
		if s == nil {
			return out
		}
		out[s.MeterID] = append(out[s.MeterID], s.Sample)
	}
	return out
}

// partitionByTracePin splits recorded responses into the edges
// observed on dedicated trace pins and everything else — spec.md §8
// invariant 2's "no response's pin is a trace pin" applies to the
// latter set only, the one reported as Evaluation.GPIOResponses.
func partitionByTracePin(responses []model.Response, mapping *pinmap.Mapping) (traceEdges, other []model.Response) {
	for _, r := range responses {
		if mapping.IsTracePin(r.Pin()) {
			traceEdges = append(traceEdges, r)
		} else {
			other = append(other, r)
		}
	}
	return traceEdges, other
}

// pinBitSignificance assigns each trace pin its bit-significance index
// (0 = LSB) from the mapping's fixed ordering.
func pinBitSignificance(mapping *pinmap.Mapping) map[uint8]uint16 {
	order := mapping.TracePinOrder()
	out := make(map[uint8]uint16, len(order))
	for i, pin := range order {
		out[pin] = uint16(i)
	}
	return out
}
