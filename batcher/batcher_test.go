package batcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func identity(inputs []int) []int {
	out := make([]int, len(inputs))
	copy(out, inputs)
	return out
}

// TestDeliveryUnderConcurrency is property P6: every concurrent Apply
// call returns the output corresponding to its own input, under an
// identity run function, and no output is returned twice.
func TestDeliveryUnderConcurrency(t *testing.T) {
	b := New[int, int](4)
	const n = 64

	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = b.Apply(i, 2*time.Millisecond, identity)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, i, got)
	}
}

func TestApplyPromotesOnDeadline(t *testing.T) {
	b := New[int, int](8)
	start := time.Now()
	got := b.Apply(42, time.Millisecond, identity)
	assert.Equal(t, 42, got)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestApplyFillsBatchImmediately(t *testing.T) {
	b := New[int, int](2)
	var wg sync.WaitGroup
	out := make([]int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = b.Apply(i, time.Second, identity)
		}(i)
	}
	wg.Wait()
	assert.ElementsMatch(t, []int{0, 1}, out)
}

func TestBatchSizeOneRunsInline(t *testing.T) {
	b := New[int, int](1)
	got := b.Apply(7, 0, identity)
	assert.Equal(t, 7, got)
}
