// Package clockwise is a hardware-in-the-loop testbed executor for
// embedded operating systems: it drives a device under test over
// GPIO, observes its output and energy draw, and reconstructs the
// serial trace of events the DUT emits as digital edges on a
// dedicated set of pins.
//
// The hard core of the engine lives in testbed: the three-thread
// coordination fabric (executor, observer, metering worker) that
// drives one test's lifecycle end to end. wire and trace implement
// the on-wire memory-statistics decoder and the trace reconstructor
// that turns raw edges back into that decoded stream. model, pinmap,
// sw, and hw hold the declarative test data, the pin topology, and
// the platform/energy collaborators the executor drives through an
// interface. config and output are the thin on-disk and CSV formats
// tying a run together; cmd/clockwise is the CLI entry point.
package clockwise
