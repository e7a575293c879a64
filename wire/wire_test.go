package wire

import (
	"testing"

	"github.com/mdclyburn/clockwise/clockerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSetPCB(t *testing.T) {
	// scenario 2: Set(PCB(7), 42)
	frame := []byte{0x01, 0x07, 0x00, 0x00, 0x00, 0x2A, 0x00, 0x00, 0x00}
	so, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, Set, so.Op)
	assert.Equal(t, PCB, so.Counter.Kind)
	assert.EqualValues(t, 7, so.Counter.PID)
	assert.EqualValues(t, 42, so.Value)
}

func TestDecodeAddGrant(t *testing.T) {
	// scenario 3: Add(Grant(3, 5), 255)
	frame := []byte{0x84, 0x03, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0xFF, 0x00, 0x00, 0x00}
	so, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, Add, so.Op)
	assert.Equal(t, Grant, so.Counter.Kind)
	assert.EqualValues(t, 3, so.Counter.PID)
	assert.EqualValues(t, 5, so.Counter.GrantNo)
	assert.EqualValues(t, 255, so.Value)
}

func TestDecodeTruncated(t *testing.T) {
	cases := [][]byte{
		{},
		{0x01},
		{0x01, 0x07, 0x00, 0x00},                      // payload cut short
		{0x01, 0x07, 0x00, 0x00, 0x00, 0x2A, 0x00, 0x00}, // operand cut short
	}
	for _, frame := range cases {
		_, err := Decode(frame)
		require.Error(t, err)
		assert.True(t, clockerr.Is(err, clockerr.Truncated), "frame %v", frame)
	}
}

func TestDecodeUnknownCounter(t *testing.T) {
	for _, id := range []byte{0, 6, 42, 127} {
		frame := []byte{id, 0, 0, 0, 0, 0, 0, 0, 0}
		_, err := Decode(frame)
		require.Error(t, err)
		assert.True(t, clockerr.Is(err, clockerr.UnknownCounter), "id %d", id)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []StreamOperation{
		{Op: Set, Counter: Counter{Kind: PCB, PID: 7}, Value: 42},
		{Op: Add, Counter: Counter{Kind: UpcallQueue, PID: 99}, Value: 1},
		{Op: Set, Counter: Counter{Kind: GrantPointerTable, PID: 1234}, Value: 0},
		{Op: Add, Counter: Counter{Kind: Grant, PID: 3, GrantNo: 5}, Value: 255},
		{Op: Set, Counter: Counter{Kind: CustomGrant, PID: 0xFFFFFFFF}, Value: 0xFFFFFFFF},
	}
	for _, so := range cases {
		encoded := Encode(so)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, so, decoded)
	}
}
