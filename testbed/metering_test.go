package testbed

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdclyburn/clockwise/model"
	"github.com/mdclyburn/clockwise/pinmap"
	"periph.io/x/periph/conn/gpio"
)

// fakeMeter reports a fixed current draw and counts how many times it
// was sampled.
type fakeMeter struct {
	id    string
	mA    float32
	reads int32
}

func (m *fakeMeter) ID() string { return m.id }

func (m *fakeMeter) ReadMilliamps() (float32, error) {
	atomic.AddInt32(&m.reads, 1)
	return m.mA, nil
}

func TestRunCollectsEnergySamplesWhenCriterionNeedsThem(t *testing.T) {
	outPin := newFakePin(5)
	mapping, err := pinmap.New(map[uint8]gpio.PinIO{5: outPin}, nil, nil, nil)
	require.NoError(t, err)

	meter := &fakeMeter{id: "system", mA: 42}
	tb := New(mapping, newFakePlatform(), NewMeters(meter), nil)
	tb.BarrierTimeout = 2 * time.Second
	tb.SampleInterval = 5 * time.Millisecond

	// An action at t=30ms gives the 5ms poll loop a few ticks to land
	// before the stimulus finishes and the "done" rendezvous fires.
	ops := []model.Operation{{TimeMS: 30, Input: model.SignalHigh(5)}}
	test, err := model.New("t1", ops, []model.Criterion{model.EnergyBudget{MeterID: "system", MaxMilliamps: 100}}, nil, nil)
	require.NoError(t, err)

	ex := NewExecutor(tb)
	evals, err := ex.Run([]*model.Test{test})
	require.NoError(t, err)
	require.Len(t, evals, 1)

	eval := evals[0]
	require.False(t, eval.Failed())
	samples, ok := eval.Energy["system"]
	require.True(t, ok)
	assert.NotEmpty(t, samples)
	for _, s := range samples {
		assert.Equal(t, float32(42), s.Value)
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&meter.reads), int32(1))
}

func TestRunSkipsMeteringWhenNoCriterionNeedsIt(t *testing.T) {
	outPin := newFakePin(5)
	mapping, err := pinmap.New(map[uint8]gpio.PinIO{5: outPin}, nil, nil, nil)
	require.NoError(t, err)

	meter := &fakeMeter{id: "system", mA: 42}
	tb := New(mapping, newFakePlatform(), NewMeters(meter), nil)
	tb.BarrierTimeout = 2 * time.Second

	test, err := model.New("t1", nil, nil, nil, nil)
	require.NoError(t, err)

	ex := NewExecutor(tb)
	evals, err := ex.Run([]*model.Test{test})
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Empty(t, evals[0].Energy)
	assert.EqualValues(t, 0, atomic.LoadInt32(&meter.reads))
}
