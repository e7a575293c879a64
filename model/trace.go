package model

import "time"

// SerialTrace is one reconstructed logical event from the DUT's trace
// pins: a timestamp and the assembled payload bytes for that frame.
//
// Label additively carries the trace reconstructor's best-effort name
// for the frame's counter ("?" when the counter decoded but Spec has
// no name for it); it does not change the (timestamp, payload) tuple
// spec.md's data model names.
type SerialTrace struct {
	Timestamp time.Time
	Payload   []byte
	Label     string
}
