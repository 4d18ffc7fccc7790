package ttt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cattus-go/cattus/game"
)

func TestFromStringRejectsWrongLength(t *testing.T) {
	_, err := FromString("xo")
	assert.Error(t, err)
}

// TestImmediateMate is the spec §8.5 scenario: "oxxo__ox_x" is a
// finished position, Player2 (O) already won.
func TestImmediateMate(t *testing.T) {
	pos, err := FromString("oxxo__ox_x")
	require.NoError(t, err)

	status, winner, ok := pos.Status()
	assert.Equal(t, game.Finished, status)
	assert.True(t, ok)
	assert.Equal(t, game.Player2, winner)
}

func TestDrawDetection(t *testing.T) {
	pos, err := FromString("xoxxoxoxox")
	require.NoError(t, err)
	status, _, ok := pos.Status()
	assert.Equal(t, game.Finished, status)
	assert.False(t, ok)
}

func TestApplyAndLegalMoves(t *testing.T) {
	pos := NewGame()
	moves := pos.LegalMoves()
	require.Len(t, moves, 9)

	next := pos.Apply(moves[0])
	assert.Equal(t, game.Player2, next.Turn())
	assert.Len(t, next.LegalMoves(), 8)
}

// TestOneMoveWin is the spec §8.5 "MCTS should find the one-move win"
// scenario: X has a forced immediate win by completing the top row.
func TestOneMoveWin(t *testing.T) {
	pos, err := FromString("xx_oo____x")
	require.NoError(t, err)

	var found bool
	for _, m := range pos.LegalMoves() {
		next := pos.Apply(m)
		if status, winner, ok := next.Status(); status == game.Finished && ok && winner == game.Player1 {
			found = true
			break
		}
	}
	assert.True(t, found, "expected a one-move win for X")
}

// TestFlipInvolution is property P2 restricted to tic-tac-toe.
func TestFlipInvolution(t *testing.T) {
	pos, err := FromString("xo_x_o___x")
	require.NoError(t, err)

	flipped := pos.Flip()
	twice := flipped.Flip()
	assert.True(t, pos.Equal(twice))
	assert.Equal(t, pos.Turn().Opponent(), flipped.Turn())
}

// TestMoveFlipCommutation is property P3: legal moves commute with
// Flip (ttt.Move.Flip is identity, since Position.Flip never
// transforms the board geometrically, only stone colors).
func TestMoveFlipCommutation(t *testing.T) {
	pos, err := FromString("xo_x_o___x")
	require.NoError(t, err)

	flippedPos := pos.Flip()
	legalOriginal := pos.LegalMoves()
	legalFlipped := flippedPos.LegalMoves()
	require.Len(t, legalFlipped, len(legalOriginal))

	for _, m := range legalOriginal {
		found := false
		for _, fm := range legalFlipped {
			if fm.Equal(m.Flip()) {
				found = true
				break
			}
		}
		assert.True(t, found, "expected %v's flip to be legal in the flipped position", m)
	}
}
