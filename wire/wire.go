// Package wire decodes and encodes stream-operation frames: the wire
// format a DUT uses to report mutations to its aggregated
// memory-statistic counters over a reconstructed serial trace.
//
// Frame layout:
//
//	byte 0:        OCCCCCCC  O = operation bit (MSB), C = 7-bit counter ID
//	bytes 1..N-4:  counter-specific payload
//	bytes N-4..N:  little-endian u32 operand
package wire

import (
	"encoding/binary"
	"strconv"

	"github.com/mdclyburn/clockwise/clockerr"
)

// Op identifies whether a StreamOperation sets or adds to a counter.
type Op int

const (
	// Set replaces the counter's value.
	Set Op = iota
	// Add accumulates onto the counter's value.
	Add
)

func (o Op) String() string {
	if o == Add {
		return "Add"
	}
	return "Set"
}

// CounterKind identifies which memory-statistic counter a frame
// addresses.
type CounterKind int

const (
	// PCB is the total for a process control block.
	PCB CounterKind = iota + 1
	// UpcallQueue is the upcall queue total for a process.
	UpcallQueue
	// GrantPointerTable is the grant pointer table total for a process.
	GrantPointerTable
	// Grant is an individual grant's size, identified by process and
	// grant number.
	Grant
	// CustomGrant is the custom grant allocation total for a process.
	CustomGrant
)

// counterPayloadLen returns the number of payload bytes (excluding the
// leading op/counter byte and the trailing u32 operand) a counter ID
// carries, and whether the ID is known.
func counterPayloadLen(kind CounterKind) (int, bool) {
	switch kind {
	case PCB, UpcallQueue, GrantPointerTable, CustomGrant:
		return 4, true
	case Grant:
		return 8, true
	default:
		return 0, false
	}
}

// Counter identifies a specific memory-statistic counter instance.
type Counter struct {
	Kind    CounterKind
	PID     uint32
	GrantNo uint32 // only meaningful when Kind == Grant
}

// String names the counter, analogous to the original Display impl.
func (c Counter) String() string {
	switch c.Kind {
	case PCB:
		return "PCB"
	case UpcallQueue:
		return "UpcallQueue"
	case GrantPointerTable:
		return "GrantPointerTable"
	case CustomGrant:
		return "CustomGrant"
	case Grant:
		return "Grant"
	default:
		return "Unknown"
	}
}

// StreamOperation is one decoded mutation of an aggregated
// memory-statistic counter.
type StreamOperation struct {
	Op      Op
	Counter Counter
	Value   uint32
}

// Decode parses a single StreamOperation frame from a byte slice.
//
// It fails with clockerr.Truncated if any field runs past the end of
// frame, clockerr.UnknownCounter if the 7-bit counter ID is outside the
// known table, and clockerr.UnknownOp if the operation bit is neither
// 0 nor 1 (defensive; only two states exist for a single bit).
func Decode(frame []byte) (StreamOperation, error) {
	if len(frame) < 1 {
		return StreamOperation{}, clockerr.New(clockerr.Truncated, "frame has no op/counter byte")
	}

	opCounter := frame[0]
	opBit := (opCounter & 0b1000_0000) >> 7
	counterID := opCounter & 0b0111_1111

	var op Op
	switch opBit {
	case 0:
		op = Set
	case 1:
		op = Add
	default:
		// Unreachable given a single bit, kept per spec's defensive
		// requirement.
		return StreamOperation{}, clockerr.New(clockerr.UnknownOp, "operation bit neither 0 nor 1")
	}

	kind := CounterKind(counterID)
	payloadLen, known := counterPayloadLen(kind)
	if !known {
		return StreamOperation{}, clockerr.New(clockerr.UnknownCounter,
			formatCounterID(counterID))
	}

	need := 1 + payloadLen + 4
	if len(frame) < need {
		return StreamOperation{}, clockerr.New(clockerr.Truncated, "frame shorter than counter payload plus operand")
	}

	payload := frame[1 : 1+payloadLen]
	operand := frame[len(frame)-4:]

	counter := Counter{Kind: kind}
	switch kind {
	case Grant:
		counter.PID = binary.LittleEndian.Uint32(payload[0:4])
		counter.GrantNo = binary.LittleEndian.Uint32(payload[4:8])
	default:
		counter.PID = binary.LittleEndian.Uint32(payload)
	}

	value := binary.LittleEndian.Uint32(operand)

	return StreamOperation{Op: op, Counter: counter, Value: value}, nil
}

// Encode renders a StreamOperation back into wire bytes. It is the
// mirror of Decode and exists to support the decode(encode(op)) == op
// round-trip law.
func Encode(so StreamOperation) []byte {
	payloadLen, _ := counterPayloadLen(so.Counter.Kind)
	frame := make([]byte, 1+payloadLen+4)

	var opBit byte
	if so.Op == Add {
		opBit = 1
	}
	frame[0] = (opBit << 7) | byte(so.Counter.Kind)

	switch so.Counter.Kind {
	case Grant:
		binary.LittleEndian.PutUint32(frame[1:5], so.Counter.PID)
		binary.LittleEndian.PutUint32(frame[5:9], so.Counter.GrantNo)
	default:
		binary.LittleEndian.PutUint32(frame[1:1+payloadLen], so.Counter.PID)
	}

	binary.LittleEndian.PutUint32(frame[len(frame)-4:], so.Value)
	return frame
}

func formatCounterID(id byte) string {
	return "counter id " + strconv.Itoa(int(id)) + " not recognized"
}
