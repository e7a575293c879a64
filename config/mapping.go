package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mdclyburn/clockwise/clockerr"
	"github.com/mdclyburn/clockwise/pinmap"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
)

type mappingDoc struct {
	// Outputs and Inputs map a logical pin number (as a decimal
	// string, since JSON object keys are always strings) to a
	// periph pin name resolvable through gpioreg.
	Outputs     map[string]string `json:"outputs"`
	Inputs      map[string]string `json:"inputs"`
	TracePins   []uint8           `json:"trace_pins"`
	PhysToLog   map[string]uint8  `json:"phys_to_log"`
}

// LoadMapping reads a JSON pin-mapping document from path, resolves
// each named pin through gpioreg, and builds a pinmap.Mapping.
func LoadMapping(path string) (*pinmap.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clockerr.Wrap(clockerr.IO, fmt.Sprintf("reading mapping file %s", path), err)
	}

	var doc mappingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, clockerr.Wrap(clockerr.IO, fmt.Sprintf("parsing mapping file %s", path), err)
	}

	outputs, err := resolvePins(doc.Outputs)
	if err != nil {
		return nil, err
	}
	inputs, err := resolvePins(doc.Inputs)
	if err != nil {
		return nil, err
	}

	physToLog := make(map[uint8]uint8, len(doc.PhysToLog))
	for physStr, log := range doc.PhysToLog {
		phys, err := parsePinKey(physStr)
		if err != nil {
			return nil, err
		}
		physToLog[phys] = log
	}

	return pinmap.New(outputs, inputs, doc.TracePins, physToLog)
}

func resolvePins(names map[string]string) (map[uint8]gpio.PinIO, error) {
	out := make(map[uint8]gpio.PinIO, len(names))
	for pinStr, name := range names {
		pin, err := parsePinKey(pinStr)
		if err != nil {
			return nil, err
		}
		resolved := gpioreg.ByName(name)
		if resolved == nil {
			return nil, clockerr.New(clockerr.UnknownPin, fmt.Sprintf("no such GPIO pin registered: %q", name))
		}
		out[pin] = resolved
	}
	return out, nil
}

func parsePinKey(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, clockerr.Wrap(clockerr.IO, fmt.Sprintf("invalid pin number %q", s), err)
	}
	return uint8(n), nil
}
