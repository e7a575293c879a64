package model

import (
	"testing"
	"time"

	"github.com/mdclyburn/clockwise/clockerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

func TestNewRejectsEmptyID(t *testing.T) {
	_, err := New("", nil, nil, nil, nil)
	require.Error(t, err)
}

func TestNewRejectsDuplicateAction(t *testing.T) {
	ops := []Operation{
		{TimeMS: 10, Input: SignalHigh(5)},
		{TimeMS: 10, Input: SignalHigh(5)},
	}
	_, err := New("t1", ops, nil, nil, nil)
	require.Error(t, err)
}

func TestActionsAreTimeOrdered(t *testing.T) {
	ops := []Operation{
		{TimeMS: 30, Input: SignalLow(1)},
		{TimeMS: 10, Input: SignalHigh(1)},
		{TimeMS: 20, Input: SignalLow(2)},
		{TimeMS: 10, Input: SignalHigh(2)}, // ties with the 2nd op; arrival order breaks the tie
	}
	test, err := New("t1", ops, nil, nil, nil)
	require.NoError(t, err)

	actions := test.Actions()
	require.Len(t, actions, 4)
	assert.Equal(t, uint64(10), actions[0].TimeMS)
	assert.Equal(t, SignalHigh(1), actions[0].Input)
	assert.Equal(t, uint64(10), actions[1].TimeMS)
	assert.Equal(t, SignalHigh(2), actions[1].Input)
	assert.Equal(t, uint64(20), actions[2].TimeMS)
	assert.Equal(t, uint64(30), actions[3].TimeMS)
}

func TestPrepObserveUnionsTracePinsAndCriteria(t *testing.T) {
	test, err := New("t1", nil, []Criterion{ResponseOn{Pin: 7}}, nil, nil)
	require.NoError(t, err)

	pins := test.PrepObserve([]uint8{1, 2})
	assert.ElementsMatch(t, []uint8{1, 2, 7}, pins)
}

func TestPrepMeter(t *testing.T) {
	withoutEnergy, err := New("t1", nil, []Criterion{ResponseOn{Pin: 1}}, nil, nil)
	require.NoError(t, err)
	assert.False(t, withoutEnergy.PrepMeter())

	withEnergy, err := New("t2", nil, []Criterion{EnergyBudget{MeterID: "system", MaxMilliamps: 100}}, nil, nil)
	require.NoError(t, err)
	assert.True(t, withEnergy.PrepMeter())
}

type fakeOutputs struct {
	pin *fakeOutputPin
}

func (f fakeOutputs) GetOutput(pin uint8) (gpio.PinIO, error) {
	if pin != f.pin.num {
		return nil, clockerr.New(clockerr.UnknownPin, "no such pin")
	}
	return f.pin, nil
}

type fakeOutputPin struct {
	num     uint8
	history []gpio.Level
}

func (f *fakeOutputPin) String() string                      { return "fake" }
func (f *fakeOutputPin) Halt() error                          { return nil }
func (f *fakeOutputPin) Name() string                         { return "fake" }
func (f *fakeOutputPin) Number() int                          { return int(f.num) }
func (f *fakeOutputPin) Function() string                     { return "" }
func (f *fakeOutputPin) In(gpio.Pull, gpio.Edge) error         { return nil }
func (f *fakeOutputPin) Read() gpio.Level                      { return gpio.Low }
func (f *fakeOutputPin) WaitForEdge(time.Duration) bool        { return false }
func (f *fakeOutputPin) DefaultPull() gpio.Pull                { return gpio.PullNoChange }
func (f *fakeOutputPin) Pull() gpio.Pull                       { return gpio.PullNoChange }
func (f *fakeOutputPin) Out(l gpio.Level) error                { f.history = append(f.history, l); return nil }
func (f *fakeOutputPin) PWM(gpio.Duty, physic.Frequency) error { return nil }

var _ gpio.PinIO = (*fakeOutputPin)(nil)

func TestExecuteEmptyActionList(t *testing.T) {
	test, err := New("t1", nil, nil, nil, nil)
	require.NoError(t, err)

	t0 := time.Now()
	exec, err := test.Execute(t0, fakeOutputs{pin: &fakeOutputPin{num: 5}})
	require.NoError(t, err)
	assert.Equal(t, t0, exec.Start)
	assert.Less(t, exec.Duration, 50*time.Millisecond)
}

func TestExecuteDrivesPinsInOrder(t *testing.T) {
	ops := []Operation{
		{TimeMS: 0, Input: SignalHigh(5)},
		{TimeMS: 5, Input: SignalLow(5)},
	}
	test, err := New("t1", ops, nil, nil, nil)
	require.NoError(t, err)

	pin := &fakeOutputPin{num: 5}
	exec, err := test.Execute(time.Now(), fakeOutputs{pin: pin})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, exec.Duration, 5*time.Millisecond)
	require.Len(t, pin.history, 2)
	assert.Equal(t, gpio.High, pin.history[0])
	assert.Equal(t, gpio.Low, pin.history[1])
}

func TestExecuteUnknownPin(t *testing.T) {
	ops := []Operation{{TimeMS: 0, Input: SignalHigh(99)}}
	test, err := New("t1", ops, nil, nil, nil)
	require.NoError(t, err)

	_, err = test.Execute(time.Now(), fakeOutputs{pin: &fakeOutputPin{num: 5}})
	require.Error(t, err)
	assert.True(t, clockerr.Is(err, clockerr.UnknownPin))
}
