// Package output formats completed test evaluations for storage.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mdclyburn/clockwise/clockerr"
	"github.com/mdclyburn/clockwise/model"
)

// DataWriter persists a test's Evaluation somewhere durable.
type DataWriter interface {
	SaveOutput(eval *model.Evaluation) error
}

// point is one energy sample pending coalescing into a CSV row.
type point struct {
	field int // 0 is reserved for the time column
	t     time.Time
	raw   string
}

// CSVWriter writes one CSV file per evaluation: a time column plus
// one column per energy meter, coalesced so that a row is only
// emitted once every meter has reported at least one sample.
type CSVWriter struct {
	basePath string
}

// NewCSVWriter creates (if necessary) basePath and returns a writer
// rooted there.
func NewCSVWriter(basePath string) (*CSVWriter, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, clockerr.Wrap(clockerr.IO, "creating CSV output directory", err)
	}
	return &CSVWriter{basePath: basePath}, nil
}

// SaveOutput implements DataWriter.
func (w *CSVWriter) SaveOutput(eval *model.Evaluation) error {
	path := filepath.Join(w.basePath, fmt.Sprintf("%s-%d.csv", eval.TestID, time.Now().Unix()))

	f, err := os.Create(path)
	if err != nil {
		return clockerr.Wrap(clockerr.IO, fmt.Sprintf("cannot open %s for writing", path), err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	meterIDs := make([]string, 0, len(eval.Energy))
	for id := range eval.Energy {
		meterIDs = append(meterIDs, id)
	}
	sort.Strings(meterIDs)

	columns := make([]string, 0, len(meterIDs)+1)
	columns = append(columns, "time")
	columns = append(columns, meterIDs...)
	if err := cw.Write(columns); err != nil {
		return clockerr.Wrap(clockerr.IO, "writing CSV header", err)
	}

	if len(meterIDs) == 0 {
		return cw.Error()
	}

	fieldOf := make(map[string]int, len(meterIDs))
	for i, id := range meterIDs {
		fieldOf[id] = i + 1
	}

	var points []point
	for id, samples := range eval.Energy {
		field := fieldOf[id]
		for _, s := range samples {
			points = append(points, point{field: field, t: s.Time, raw: fmt.Sprintf("%.4f", s.Value)})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })

	row := make([]string, len(columns))
	valid := make([]bool, len(columns))
	allValid := false
	for _, p := range points {
		row[p.field] = p.raw
		valid[p.field] = true

		if !allValid {
			allValid = true
			for i := 1; i < len(valid); i++ {
				if !valid[i] {
					allValid = false
					break
				}
			}
			// The point that completes the row only establishes the
			// baseline; it is not itself written as a row.
			continue
		}

		row[0] = fmt.Sprintf("%d", p.t.Sub(eval.Execution.Start).Microseconds())
		if err := cw.Write(append([]string(nil), row...)); err != nil {
			return clockerr.Wrap(clockerr.IO, "writing CSV data row", err)
		}
	}

	return cw.Error()
}

var _ DataWriter = (*CSVWriter)(nil)
