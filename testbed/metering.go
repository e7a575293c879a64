package testbed

import (
	"log"
	"time"

	"github.com/mdclyburn/clockwise/model"
)

// DefaultSampleInterval is the design poll period for energy meters
// (spec.md §4.6's "10 ms typical").
const DefaultSampleInterval = 10 * time.Millisecond

// MeterSample pairs one energy reading with the meter it came from, so
// the executor can regroup a flat stream back into per-meter buffers.
type MeterSample struct {
	MeterID string
	Sample  model.EnergySample
}

// Metering is the C6 worker: round-robin polls every configured meter
// for the duration of a test whose criteria require energy data.
type Metering struct {
	meters   *Meters
	barrier  *Barrier
	timeout  time.Duration
	interval time.Duration

	testCh  chan *model.Test
	samples chan *MeterSample
}

// NewMetering builds a Metering worker polling meters at interval,
// sharing barrier with the executor and the observer.
func NewMetering(meters *Meters, barrier *Barrier, timeout, interval time.Duration) *Metering {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Metering{
		meters:   meters,
		barrier:  barrier,
		timeout:  timeout,
		interval: interval,
		testCh:   make(chan *model.Test),
		samples:  make(chan *MeterSample, 1),
	}
}

// Publish hands the worker the test for the next iteration (or nil to
// signal the final "ready" rendezvous and exit).
func (m *Metering) Publish(test *model.Test) { m.testCh <- test }

// Samples streams recorded readings, one test's worth at a time, each
// terminated by a nil sentinel.
func (m *Metering) Samples() <-chan *MeterSample { return m.samples }

// Run is the metering worker loop. Like Observer.Run, it returns only
// on a nil test or a failed "ready" rendezvous; a failure inside a
// single test's runTest (including one caused by this worker's own
// "go"/"done" wait timing out) is logged and does not end the worker,
// so it is always still listening when Executor.Run's error-recovery
// path publishes the final nil.
func (m *Metering) Run() error {
	for {
		test := <-m.testCh

		if err := m.barrier.Wait(m.timeout); err != nil {
			return err
		}
		if test == nil {
			return nil
		}

		if err := m.runTest(test); err != nil {
			log.Printf("testbed: metering: %v", err)
			m.samples <- nil
		}
	}
}

func (m *Metering) runTest(test *model.Test) error {
	if !test.PrepMeter() {
		if err := m.barrier.Wait(m.timeout); err != nil { // "go"
			return err
		}
		if err := m.barrier.Wait(m.timeout); err != nil { // "done"
			return err
		}
		m.samples <- nil
		return nil
	}

	if err := m.barrier.Wait(m.timeout); err != nil { // "go"
		return err
	}

	ids := m.meters.IDs()
	var recorded []MeterSample
	stop := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				now := time.Now()
				for _, id := range ids {
					v, err := m.meters.Sample(id)
					if err != nil {
						continue
					}
					recorded = append(recorded, MeterSample{MeterID: id, Sample: model.EnergySample{Time: now, Value: v}})
				}
			}
		}
	}()

	// "done" release: stops the poll goroutine once the executor has
	// finished driving the stimulus and arrives here too.
	if err := m.barrier.Wait(m.timeout); err != nil {
		close(stop)
		<-polled
		return err
	}

	close(stop)
	<-polled

	for i := range recorded {
		m.samples <- &recorded[i]
	}
	m.samples <- nil
	return nil
}
