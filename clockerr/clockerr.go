// Package clockerr defines the error kinds shared across the testbed
// execution engine.
package clockerr

import "fmt"

// Kind identifies the class of failure an Error represents.
type Kind int

const (
	// IO covers local or DUT input/output failures.
	IO Kind = iota
	// GPIO covers interrupt arming, clearing, or level-read failures.
	GPIO
	// Comm covers a channel receive against a closed channel.
	Comm
	// Threading covers a worker goroutine failing to start.
	Threading
	// Software covers a platform collaborator failure, surfaced as a
	// tool's own output.
	Software
	// NoSuchMeter indicates a requested energy meter ID is not configured.
	NoSuchMeter
	// UnknownPin indicates an operation referenced a pin outside a Mapping.
	UnknownPin
	// Truncated indicates a wire frame ended before a field completed.
	Truncated
	// UnknownCounter indicates a 7-bit counter ID outside the known table.
	UnknownCounter
	// UnknownOp indicates an operation bit other than 0 or 1 (defensive;
	// only two states exist given a single bit).
	UnknownOp
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "IO"
	case GPIO:
		return "GPIO"
	case Comm:
		return "Comm"
	case Threading:
		return "Threading"
	case Software:
		return "Software"
	case NoSuchMeter:
		return "NoSuchMeter"
	case UnknownPin:
		return "UnknownPin"
	case Truncated:
		return "Truncated"
	case UnknownCounter:
		return "UnknownCounter"
	case UnknownOp:
		return "UnknownOp"
	default:
		return "Unknown"
	}
}

// Error is a clockwise testbed error: a Kind, a human-readable message,
// and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
