package testbed

import (
	"sort"
	"sync"

	"github.com/mdclyburn/clockwise/clockerr"
	"github.com/mdclyburn/clockwise/hw"
)

// Meters holds the testbed's energy meters behind a shared mutex.
// spec.md §5 reserves this mutex for the metering worker alone, held
// only while sampling, never across a barrier rendezvous.
type Meters struct {
	mu sync.Mutex
	m  map[string]hw.EnergyMeter
}

// NewMeters builds a Meters set from the given meters, keyed by their
// own ID().
func NewMeters(meters ...hw.EnergyMeter) *Meters {
	m := make(map[string]hw.EnergyMeter, len(meters))
	for _, meter := range meters {
		m[meter.ID()] = meter
	}
	return &Meters{m: m}
}

// IDs returns every configured meter ID, sorted, for stable
// round-robin polling order.
func (ms *Meters) IDs() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ids := make([]string, 0, len(ms.m))
	for id := range ms.m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sample reads the named meter's current draw. It fails with
// clockerr.NoSuchMeter if id is not configured.
func (ms *Meters) Sample(id string) (float32, error) {
	ms.mu.Lock()
	meter, ok := ms.m[id]
	ms.mu.Unlock()
	if !ok {
		return 0, clockerr.New(clockerr.NoSuchMeter, "no such meter: "+id)
	}
	return meter.ReadMilliamps()
}
