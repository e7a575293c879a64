package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdclyburn/clockwise/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOutputWritesCoalescedRows(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir)
	require.NoError(t, err)

	start := time.Now()
	eval := &model.Evaluation{
		TestID:    "blink",
		Execution: model.Execution{Start: start},
		Energy: map[string][]model.EnergySample{
			"rail0": {
				{Time: start.Add(1 * time.Millisecond), Value: 10},
				{Time: start.Add(3 * time.Millisecond), Value: 12},
			},
			"rail1": {
				{Time: start.Add(2 * time.Millisecond), Value: 5},
				{Time: start.Add(4 * time.Millisecond), Value: 6},
			},
		},
	}

	require.NoError(t, w.SaveOutput(eval))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "blink-")

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "time,rail0,rail1")
	// The first point that completes both columns (rail1 at +2ms)
	// only establishes the baseline and produces no row of its own;
	// rows start appearing from the next sample onward.
	assert.Contains(t, content, "3000,12.0000,5.0000")
	assert.Contains(t, content, "4000,12.0000,6.0000")
}

func TestSaveOutputNoMeters(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir)
	require.NoError(t, err)

	eval := &model.Evaluation{TestID: "idle", Execution: model.Execution{Start: time.Now()}}
	require.NoError(t, w.SaveOutput(eval))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "time\n", string(data))
}
