// Package config loads test suites and pin mappings from JSON files
// on disk, the thin on-disk format spec.md leaves external and
// unspecified.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mdclyburn/clockwise/clockerr"
	"github.com/mdclyburn/clockwise/model"
)

type actionDoc struct {
	TimeMS uint64 `json:"time_ms"`
	Pin    uint8  `json:"pin"`
	Level  string `json:"level"`
}

type criterionDoc struct {
	Type         string `json:"type"`
	Pin          uint8  `json:"pin,omitempty"`
	MeterID      string `json:"meter_id,omitempty"`
	MaxMilliamps uint32 `json:"max_milliamps,omitempty"`
}

type testDoc struct {
	ID          string         `json:"id"`
	Actions     []actionDoc    `json:"actions"`
	Criteria    []criterionDoc `json:"criteria"`
	AppIDs      []string       `json:"app_ids"`
	TracePoints []string       `json:"trace_points"`
}

// LoadSuite reads a JSON array of test documents from path and builds
// the corresponding model.Test values.
func LoadSuite(path string) ([]*model.Test, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clockerr.Wrap(clockerr.IO, fmt.Sprintf("reading suite file %s", path), err)
	}

	var docs []testDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, clockerr.Wrap(clockerr.IO, fmt.Sprintf("parsing suite file %s", path), err)
	}

	tests := make([]*model.Test, 0, len(docs))
	for _, doc := range docs {
		test, err := buildTest(doc)
		if err != nil {
			return nil, clockerr.Wrap(clockerr.IO, fmt.Sprintf("building test %q", doc.ID), err)
		}
		tests = append(tests, test)
	}
	return tests, nil
}

func buildTest(doc testDoc) (*model.Test, error) {
	ops := make([]model.Operation, 0, len(doc.Actions))
	for _, a := range doc.Actions {
		level, err := parseLevel(a.Level)
		if err != nil {
			return nil, err
		}
		ops = append(ops, model.Operation{
			TimeMS: a.TimeMS,
			Input:  model.Signal{Level: level, Pin: a.Pin},
		})
	}

	criteria := make([]model.Criterion, 0, len(doc.Criteria))
	for _, c := range doc.Criteria {
		crit, err := buildCriterion(c)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, crit)
	}

	return model.New(doc.ID, ops, criteria, doc.AppIDs, doc.TracePoints)
}

func parseLevel(s string) (model.Level, error) {
	switch s {
	case "high", "HIGH", "High":
		return model.High, nil
	case "low", "LOW", "Low":
		return model.Low, nil
	default:
		return 0, clockerr.New(clockerr.Software, fmt.Sprintf("unrecognized signal level %q", s))
	}
}

func buildCriterion(c criterionDoc) (model.Criterion, error) {
	switch c.Type {
	case "response_on":
		return model.ResponseOn{Pin: c.Pin}, nil
	case "energy_budget":
		return model.EnergyBudget{MeterID: c.MeterID, MaxMilliamps: c.MaxMilliamps}, nil
	default:
		return nil, clockerr.New(clockerr.Software, fmt.Sprintf("unrecognized criterion type %q", c.Type))
	}
}
