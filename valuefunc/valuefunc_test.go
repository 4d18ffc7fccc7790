package valuefunc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cattus-go/cattus/game/ttt"
	"github.com/cattus-go/cattus/modelrunner/reference"
)

func newTestVF() *ValueFunction {
	runner := reference.Uniform{MovesNum: ttt.MovesNum}
	return New(runner, Config{
		Channels:  ttt.Planes,
		Height:    ttt.BoardSize,
		Width:     ttt.BoardSize,
		MovesNum:  ttt.MovesNum,
		BatchSize: 4,
		Deadline:  5 * time.Millisecond,
		CacheSize: 64,
	})
}

// TestProbabilitySimplex is property P4: the move probabilities
// returned by Evaluate sum to ~1 and are all non-negative.
func TestProbabilitySimplex(t *testing.T) {
	vf := newTestVF()
	pos := ttt.NewGame()

	probs, value, err := vf.Evaluate(context.Background(), pos)
	require.NoError(t, err)
	assert.Len(t, probs, 9)

	var sum float32
	for _, mp := range probs {
		assert.GreaterOrEqual(t, mp.Prob, float32(0))
		sum += mp.Prob
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
	assert.GreaterOrEqual(t, value, float32(-1))
	assert.LessOrEqual(t, value, float32(1))
}

// TestEvaluateCanonicalizesPlayer2 checks that a Player2-to-move
// position, which Evaluate flips before inference and un-flips after,
// still yields a distribution over exactly its seven legal moves. The
// value negation is not observable here: the uniform runner returns 0.
func TestEvaluateCanonicalizesPlayer2(t *testing.T) {
	vf := newTestVF()
	pos, err := ttt.FromString("xo_______o")
	require.NoError(t, err)

	probs, _, err := vf.Evaluate(context.Background(), pos)
	require.NoError(t, err)
	assert.Len(t, probs, 7)

	var sum float32
	for _, mp := range probs {
		sum += mp.Prob
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestEvaluateCachesByPosition(t *testing.T) {
	vf := newTestVF()
	pos := ttt.NewGame()

	_, v1, err := vf.Evaluate(context.Background(), pos)
	require.NoError(t, err)
	_, v2, err := vf.Evaluate(context.Background(), pos)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}
