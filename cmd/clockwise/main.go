// clockwise runs a hardware-in-the-loop test suite against a device
// under test: it reads a pin mapping and a suite of declarative tests,
// drives the DUT via GPIO, meters its energy draw, reconstructs its
// emitted trace, and writes one CSV per completed test.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/mdclyburn/clockwise/config"
	"github.com/mdclyburn/clockwise/hw"
	"github.com/mdclyburn/clockwise/output"
	"github.com/mdclyburn/clockwise/sw"
	"github.com/mdclyburn/clockwise/testbed"
)

func mainImpl() error {
	mappingPath := flag.String("mapping", "", "path to the pin mapping JSON document")
	suitePath := flag.String("suite", "", "path to the test suite JSON document")
	outDir := flag.String("out", "results", "directory CSV output is written to")

	platformName := flag.String("platform", "tock", "platform identifier the builder reports")
	boardDir := flag.String("board-dir", "", "DUT board build directory")
	buildCmd := flag.String("build-cmd", "/usr/bin/make", "build tool invoked in board-dir")
	loaderPath := flag.String("loader-path", "", "application loader tool path")
	specPath := flag.String("spec-path", "/tmp/clockwise-trace-spec.json", "TRACE_SPEC_PATH the build reads back")

	i2cBus := flag.String("i2c-bus", "", "I2C bus name for energy meters (empty selects the default bus)")
	meterSpec := flag.String("meters", "", "comma-separated id=address pairs, e.g. system=0x40,mcu=0x41")

	verbose := flag.Bool("v", false, "verbose logging")

	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if *mappingPath == "" || *suitePath == "" {
		return errors.New("-mapping and -suite are required")
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("initializing periph host: %w", err)
	}

	mapping, err := config.LoadMapping(*mappingPath)
	if err != nil {
		return err
	}

	tests, err := config.LoadSuite(*suitePath)
	if err != nil {
		return err
	}

	platform := sw.NewBuilder(sw.PlatformID(*platformName), *boardDir, *buildCmd, nil, *loaderPath, *specPath)

	meters, err := loadMeters(*i2cBus, *meterSpec)
	if err != nil {
		return err
	}

	writer, err := output.NewCSVWriter(*outDir)
	if err != nil {
		return err
	}

	tb := testbed.New(mapping, platform, meters, writer)
	ex := testbed.NewExecutor(tb)

	evals, err := ex.Run(tests)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	failed := 0
	for _, e := range evals {
		if e.Failed() {
			failed++
			log.Printf("FAIL %s: %v", e.TestID, e.Err)
		} else {
			log.Printf("PASS %s (%d responses, %d trace frames)", e.TestID, len(e.GPIOResponses), len(e.Traces))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tests failed", failed, len(evals))
	}
	return nil
}

// loadMeters parses "-meters" (id=hex-address pairs) and opens an
// INA219 driver on busName for each. An empty spec returns an empty
// meter set; every test then records no energy samples, since there
// is no meter to poll.
func loadMeters(busName, spec string) (*testbed.Meters, error) {
	if strings.TrimSpace(spec) == "" {
		return testbed.NewMeters(), nil
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("opening I2C bus %q: %w", busName, err)
	}

	var ms []hw.EnergyMeter
	for _, pair := range strings.Split(spec, ",") {
		id, addrStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed meter spec %q, want id=address", pair)
		}
		var addr uint64
		if _, err := fmt.Sscanf(strings.TrimSpace(addrStr), "0x%x", &addr); err != nil {
			return nil, fmt.Errorf("malformed meter address %q: %w", addrStr, err)
		}
		meter, err := hw.NewINA219(bus, uint16(addr), strings.TrimSpace(id), 0)
		if err != nil {
			return nil, fmt.Errorf("initializing meter %q: %w", id, err)
		}
		ms = append(ms, meter)
	}
	return testbed.NewMeters(ms...), nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "clockwise: %s.\n", err)
		os.Exit(1)
	}
}
