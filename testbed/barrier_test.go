package testbed

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdclyburn/clockwise/clockerr"
)

func TestBarrierReleasesAllPartiesTogether(t *testing.T) {
	b := NewBarrier(3)

	var arrived int32
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		go func() {
			defer wg.Done()
			err := b.Wait(time.Second)
			assert.NoError(t, err)
			atomic.AddInt32(&arrived, 1)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 3, arrived)
}

func TestBarrierIsReusable(t *testing.T) {
	b := NewBarrier(2)

	for round := 0; round < 3; round++ {
		var wg sync.WaitGroup
		wg.Add(2)
		for i := 0; i < 2; i++ {
			go func() {
				defer wg.Done()
				require.NoError(t, b.Wait(time.Second))
			}()
		}
		wg.Wait()
	}
}

func TestBarrierTimesOutWhenAPartyIsMissing(t *testing.T) {
	b := NewBarrier(2)

	err := b.Wait(20 * time.Millisecond)
	require.Error(t, err)
	assert.True(t, clockerr.Is(err, clockerr.Threading))
}
