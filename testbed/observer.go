package testbed

import (
	"log"
	"sync"
	"time"

	"github.com/mdclyburn/clockwise/clockerr"
	"github.com/mdclyburn/clockwise/model"
	"github.com/mdclyburn/clockwise/pinmap"
	"periph.io/x/periph/conn/gpio"
)

// Observer is the C5 worker: for each test it arms both-edge
// interrupts on the pins the test cares about, records every edge
// fired until released, then streams the recorded responses back to
// the executor.
type Observer struct {
	mapping *pinmap.Mapping
	barrier *Barrier
	timeout time.Duration

	// testCh is the per-worker unbuffered channel the executor
	// message-passes the current test through, replacing a shared
	// RwLock<Option<Test>> cell per spec.md §9's own stated
	// preference. A nil test tells the worker to exit its loop.
	testCh chan *model.Test

	// responses streams recorded edges to the executor once a test's
	// "done" rendezvous releases this worker, terminated by a single
	// nil sentinel.
	responses chan *model.Response
}

// NewObserver builds an Observer sharing barrier with the executor and
// the metering worker.
func NewObserver(mapping *pinmap.Mapping, barrier *Barrier, timeout time.Duration) *Observer {
	return &Observer{
		mapping:   mapping,
		barrier:   barrier,
		timeout:   timeout,
		testCh:    make(chan *model.Test),
		responses: make(chan *model.Response, 1),
	}
}

// Publish hands the worker the test for the next iteration (or nil to
// signal the final "ready" rendezvous and exit).
func (o *Observer) Publish(test *model.Test) { o.testCh <- test }

// Responses is the channel Run streams recorded edges over, one test's
// worth at a time, each terminated by a nil sentinel.
func (o *Observer) Responses() <-chan *model.Response { return o.responses }

// Run is the observer's worker loop. It returns only on a nil test or
// on a failed "ready" rendezvous — the latter means some other party
// never reached this round at all, an unrecoverable state spec.md §4.8
// calls a fatal bug. A failure within a single test's runTest (a GPIO
// arm error, or a "go"/"done" rendezvous this worker itself caused to
// time out) is logged and does not end the worker: it stays on the
// "ready" rendezvous for every later test, including the final nil
// Publish that shuts it down, so Executor.Run's error-recovery Publish
// always has a receiver.
func (o *Observer) Run() error {
	for {
		test := <-o.testCh

		if err := o.barrier.Wait(o.timeout); err != nil {
			return err
		}
		if test == nil {
			return nil
		}

		if err := o.runTest(test); err != nil {
			log.Printf("testbed: observer: %v", err)
			o.responses <- nil
		}
	}
}

func (o *Observer) runTest(test *model.Test) error {
	pins := test.PrepObserve(o.mapping.TracePinOrder())
	handles := make([]gpio.PinIO, 0, len(pins))
	for _, p := range pins {
		h, err := o.mapping.GetInput(p)
		if err != nil {
			return err
		}
		if err := h.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
			return clockerr.Wrap(clockerr.GPIO, "arming interrupt", err)
		}
		handles = append(handles, h)
	}

	if err := o.barrier.Wait(o.timeout); err != nil {
		return err
	}

	var mu sync.Mutex
	var recorded []model.Response
	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h gpio.PinIO) {
			defer wg.Done()
			for h.WaitForEdge(-1) {
				r := model.Response{
					Time:   time.Now(),
					Output: model.Signal{Level: fromGPIOLevel(h.Read()), Pin: uint8(h.Number())},
				}
				r = o.mapping.Remap(r)
				mu.Lock()
				recorded = append(recorded, r)
				mu.Unlock()
			}
		}(h)
	}

	// "done" release: the executor only reaches this rendezvous once
	// stimulus.Drive has finished, so this wait IS the signal to stop
	// recording, per spec.md §4.5.
	if err := o.barrier.Wait(o.timeout); err != nil {
		return err
	}

	for _, h := range handles {
		h.Halt()
	}
	wg.Wait()

	for i := range recorded {
		o.responses <- &recorded[i]
	}
	o.responses <- nil
	return nil
}

func fromGPIOLevel(l gpio.Level) model.Level {
	if l == gpio.High {
		return model.High
	}
	return model.Low
}
