package ids

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewMonotonic(func() time.Time { return fixed })

	assert.Equal(t, int64(1_700_000_000_000), g.Next())
	assert.Equal(t, int64(1_700_000_000_001), g.Next())
	assert.Equal(t, int64(1_700_000_000_002), g.Next())
}

func TestMonotonicClockStepsBack(t *testing.T) {
	now := time.UnixMilli(5_000)
	g := NewMonotonic(func() time.Time { return now })

	first := g.Next()
	now = time.UnixMilli(1_000)
	second := g.Next()

	assert.Greater(t, second, first)
}

func TestMonotonicConcurrentUnique(t *testing.T) {
	g := NewMonotonic(nil)
	const workers, perWorker = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := g.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
}

func TestSequence(t *testing.T) {
	s := NewSequence(10)
	assert.Equal(t, int64(10), s.Next())
	assert.Equal(t, int64(11), s.Next())
}
