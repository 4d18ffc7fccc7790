package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cattus-go/cattus/game/ttt"
)

func TestGetOrComputeCachesResult(t *testing.T) {
	c := New(10)
	pos := ttt.NewGame()

	calls := 0
	compute := func() Entry {
		calls++
		return Entry{Value: 0.5}
	}

	e1 := c.GetOrCompute(pos, compute)
	e2 := c.GetOrCompute(pos, compute)

	assert.Equal(t, 1, calls)
	assert.Equal(t, e1.Value, e2.Value)
	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, uint64(1), hits)
}

// TestFIFOEviction is property P5: after n distinct insertions with
// max_size = k, the map has exactly min(n, k) entries, and re-accessing
// an evicted position is a miss that changes the queued keys.
func TestFIFOEviction(t *testing.T) {
	c := New(3)
	boards := []string{
		"xox_o_x_ox", "oxo_x_o_xx", "xxo_o_x_ox",
		"oox_x_o_xx", "xox_o_o_xx",
	}
	names := []string{"A", "B", "C", "D", "E"}

	positions := make(map[string]*ttt.Position)
	for i, b := range boards {
		pos, err := ttt.FromString(b)
		require.NoError(t, err)
		positions[names[i]] = pos
	}

	for _, n := range names {
		c.GetOrCompute(positions[n], func() Entry { return Entry{} })
	}
	assert.Equal(t, 3, c.Len())

	// A was evicted by the time D and E arrived; re-accessing it now is
	// a fresh miss that re-inserts it at the back of the queue.
	before := c.Keys()
	c.GetOrCompute(positions["A"], func() Entry { return Entry{} })
	after := c.Keys()
	assert.NotEqual(t, before, after)
	assert.Equal(t, 3, c.Len())
}
