package testbed

import (
	"sync"
	"time"

	"github.com/mdclyburn/clockwise/clockerr"
)

// DefaultBarrierTimeout bounds how long a party waits at a rendezvous
// before the run is aborted as deadlocked. spec.md §4.8 calls a missed
// rendezvous "a fatal bug"; this is the design timeout it asks
// implementations to detect it with.
const DefaultBarrierTimeout = 30 * time.Second

// Barrier is a reusable, fixed-size rendezvous point: n parties must
// each call Wait before any of them proceeds, and the barrier resets
// itself for the next round once the last party arrives.
//
// Unlike sync.WaitGroup, Barrier is cyclic — the executor, observer,
// and metering worker reuse the same three rendezvous points ("ready",
// "go", "done") once per test for the lifetime of a run.
type Barrier struct {
	n int

	mu      sync.Mutex
	arrived int
	tripped chan struct{}
}

// NewBarrier builds a barrier for exactly n parties.
func NewBarrier(n int) *Barrier {
	return &Barrier{n: n, tripped: make(chan struct{})}
}

// Wait blocks until n parties (including this one) have called Wait
// since the barrier last tripped, then returns nil. If timeout elapses
// first, it returns a clockerr.Threading error: some party failed to
// reach this rendezvous, which spec.md treats as a fatal run bug.
func (b *Barrier) Wait(timeout time.Duration) error {
	b.mu.Lock()
	gen := b.tripped
	b.arrived++
	if b.arrived == b.n {
		b.arrived = 0
		b.tripped = make(chan struct{})
		close(gen)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	select {
	case <-gen:
		return nil
	case <-time.After(timeout):
		return clockerr.New(clockerr.Threading, "barrier rendezvous timed out; a party likely deadlocked")
	}
}
