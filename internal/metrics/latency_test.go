package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderSnapshot(t *testing.T) {
	r := NewRecorder()
	for i := 1; i <= 100; i++ {
		r.Record("GET /products", time.Duration(i)*time.Millisecond)
	}
	r.Record("ai.recommend", 2*time.Hour)
	r.Record("ai.recommend", 0)

	snap := r.Snapshot()
	require.Len(t, snap, 2)

	ai := snap[1]
	assert.Equal(t, "ai.recommend", ai.Name)
	assert.Equal(t, int64(2), ai.Count)
	assert.InDelta(t, 60000, ai.Max, 120, "clamped to one minute")

	products := snap[0]
	assert.Equal(t, "GET /products", products.Name)
	assert.Equal(t, int64(100), products.Count)
	assert.InDelta(t, 50, products.P50, 1)
	assert.InDelta(t, 95, products.P95, 1)
	assert.InDelta(t, 50.5, products.Mean, 1)
}

func TestRecorderConcurrentUse(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Since("route", time.Now().Add(-time.Millisecond))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(800), r.Snapshot()[0].Count)
}
