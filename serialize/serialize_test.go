package serialize

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cattus-go/cattus/game"
	"github.com/cattus-go/cattus/game/ttt"
	"github.com/cattus-go/cattus/mcts"
	"github.com/cattus-go/cattus/selfplay"
)

// readRecord parses a file written by Writer.Write back into its three
// fields, using ttt's plane/move-index layout (Planes=3, MovesNum=9).
func readRecord(t *testing.T, path string) (planes [3]uint64, probs [ttt.MovesNum]float32, winner int8) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	for i := range planes {
		require.NoError(t, binary.Read(f, binary.LittleEndian, &planes[i]))
	}
	for i := range probs {
		var bits uint32
		require.NoError(t, binary.Read(f, binary.LittleEndian, &bits))
		probs[i] = math.Float32frombits(bits)
	}
	require.NoError(t, binary.Read(f, binary.LittleEndian, &winner))
	return planes, probs, winner
}

// moveByIdx finds the legal move landing on cell idx, by its network
// index, since ttt.Move's fields are unexported outside the package.
func moveByIdx(t *testing.T, pos game.Position, idx int) game.Move {
	t.Helper()
	for _, m := range pos.LegalMoves() {
		if m.ToNNIndex() == idx {
			return m
		}
	}
	t.Fatalf("no legal move with network index %d", idx)
	return nil
}

func TestWritePlayer1ToMoveLayout(t *testing.T) {
	dir := t.TempDir()
	w := New(ttt.MovesNum)

	pos := ttt.NewGame()
	rec := selfplay.Record{
		Position: pos,
		Probs: []mcts.MoveProb{
			{Move: moveByIdx(t, pos, 0), Prob: 1},
		},
		Winner: game.Player1,
	}
	require.NoError(t, w.Write(rec, dir))

	planes, probs, winner := readRecord(t, filepath.Join(dir, "0.bin"))
	assert.Equal(t, uint64(0), planes[0])
	assert.Equal(t, uint64(0), planes[1])
	assert.Equal(t, uint64((1<<9)-1), planes[2])

	assert.Equal(t, float32(1), probs[0])
	for i := 1; i < ttt.MovesNum; i++ {
		assert.Equal(t, float32(-1), probs[i])
	}
	assert.Equal(t, int8(1), winner)
}

// TestWriteCanonicalizesPlayer2ToMove checks that a Player2-to-move
// record is flipped (position, move probabilities and winner) before
// being serialized, so every on-disk record is always Player1-to-move.
func TestWriteCanonicalizesPlayer2ToMove(t *testing.T) {
	dir := t.TempDir()
	w := New(ttt.MovesNum)

	pos, err := ttt.FromString("x________o")
	require.NoError(t, err)
	require.Equal(t, game.Player2, pos.Turn())

	rec := selfplay.Record{
		Position: pos,
		Probs: []mcts.MoveProb{
			{Move: moveByIdx(t, pos, 1), Prob: 1},
		},
		Winner: game.Player2,
	}
	require.NoError(t, w.Write(rec, dir))

	planes, probs, winner := readRecord(t, filepath.Join(dir, "0.bin"))
	// Flip swaps stone colors (X<->O) without moving them, so the X
	// stone at index 0 becomes an O stone at the same index.
	assert.Equal(t, uint64(0), planes[0])
	assert.Equal(t, uint64(1), planes[1])

	assert.Equal(t, float32(1), probs[1])
	assert.Equal(t, int8(1), winner, "winner flips from the original Player2 to the canonical mover's Player1")
}

func TestSequentialFilenamesPerOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	w := New(ttt.MovesNum)
	rec := selfplay.Record{Position: ttt.NewGame(), Draw: true}

	require.NoError(t, w.Write(rec, dir))
	require.NoError(t, w.Write(rec, dir))

	_, err := os.Stat(filepath.Join(dir, "0.bin"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "1.bin"))
	assert.NoError(t, err)
}

func TestDrawIsWinnerZero(t *testing.T) {
	dir := t.TempDir()
	w := New(ttt.MovesNum)
	rec := selfplay.Record{Position: ttt.NewGame(), Draw: true}
	require.NoError(t, w.Write(rec, dir))

	_, _, winner := readRecord(t, filepath.Join(dir, "0.bin"))
	assert.Equal(t, int8(0), winner)
}
