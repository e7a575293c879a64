// Package testbed implements the three-thread coordination fabric
// (C5-C8): the executor, the observer, the metering worker, and the
// reusable barrier they rendezvous on. It is the hard core of the
// execution engine spec.md describes — everything else in this module
// is a collaborator the executor drives through an interface.
package testbed

import (
	"time"

	"github.com/mdclyburn/clockwise/output"
	"github.com/mdclyburn/clockwise/pinmap"
	"github.com/mdclyburn/clockwise/sw"
	"github.com/mdclyburn/clockwise/trace"
)

// Testbed bundles the resources a run needs exclusive access to: the
// pin topology, the platform collaborator, and the energy meters.
// spec.md §3's Ownership section reserves all three to the executor;
// workers only ever see them through the narrower views Observer and
// Metering hold.
type Testbed struct {
	Mapping  *pinmap.Mapping
	Platform sw.PlatformSupport
	Meters   *Meters

	// Writer persists each completed Evaluation; nil disables output.
	Writer output.DataWriter

	// TraceConfig tunes the trace reconstructor's sample/frame
	// grouping thresholds (spec.md §9's open question).
	TraceConfig trace.Config

	// SampleInterval is the metering worker's poll period.
	SampleInterval time.Duration

	// BarrierTimeout bounds each rendezvous wait before the run is
	// aborted as deadlocked.
	BarrierTimeout time.Duration
}

// New builds a Testbed with spec.md §9's design defaults for the
// tunables a caller doesn't set explicitly.
func New(mapping *pinmap.Mapping, platform sw.PlatformSupport, meters *Meters, writer output.DataWriter) *Testbed {
	return &Testbed{
		Mapping:        mapping,
		Platform:       platform,
		Meters:         meters,
		Writer:         writer,
		TraceConfig:    trace.DefaultConfig(),
		SampleInterval: DefaultSampleInterval,
		BarrierTimeout: DefaultBarrierTimeout,
	}
}
