package perf

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingEvictsOldestFirst(t *testing.T) {
	r := NewRing(3)

	for i := 0; i < 5; i++ {
		r.Record(Sample{Route: fmt.Sprintf("/r%d", i), Duration: time.Millisecond})
	}

	snap := r.Snapshot()
	require.Len(t, snap, 3)

	// 0 and 1 were evicted
	assert.Equal(t, "/r2", snap[0].Route)
	assert.Equal(t, "/r3", snap[1].Route)
	assert.Equal(t, "/r4", snap[2].Route)
}

func TestRingPartiallyFilled(t *testing.T) {
	r := NewRing(8)

	r.Record(Sample{Route: "/a"})
	r.Record(Sample{Route: "/b"})

	assert.Equal(t, 2, r.Len())

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "/a", snap[0].Route)
	assert.Equal(t, "/b", snap[1].Route)
}

func TestRingConcurrentRecord(t *testing.T) {
	r := NewRing(16)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			r.Record(Sample{Route: "/x"})
		}()
	}

	wg.Wait()
	assert.Equal(t, 16, r.Len())
}

func TestRingCapacityFallback(t *testing.T) {
	r := NewRing(0)
	r.Record(Sample{Route: "/a"})
	assert.Equal(t, 1, r.Len())
}
