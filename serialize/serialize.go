// Package serialize implements the DataEntry writer from spec §6:
// training records are always serialized with Player1 to move (flip if
// needed), as planes + per-move-network-index probabilities + winner.
//
// Grounded on original_source/cattus-engine/src/game/model.rs for the
// exact binary layout, and on the teacher's own "write fixed binary
// records to a file" idiom in agogo.go's SaveAZ/Load — adapted there
// from gob (whole-model checkpoints) to encoding/binary here, since the
// spec's byte-for-byte layout (planes as u64, probs as little-endian
// f32 with -1 for illegal moves, winner as i8) cannot be expressed
// through gob's self-describing format.
package serialize

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/cattus-go/cattus/game"
	"github.com/cattus-go/cattus/mcts"
	"github.com/cattus-go/cattus/selfplay"
)

// Writer implements selfplay.Sink: it appends each finished record to a
// sequentially-numbered file under the record's output directory, one
// file per Write call, mirroring the teacher's per-example file naming
// in its (unused by us) dualnet training-data export path.
type Writer struct {
	movesNum int

	mu  sync.Mutex
	seq map[string]*int64
}

// New returns a Writer for a game whose MovesNum is movesNum.
func New(movesNum int) *Writer {
	return &Writer{movesNum: movesNum, seq: make(map[string]*int64)}
}

// Write canonicalizes rec (flipping to Player1-to-move if needed) and
// appends one binary record to a new file under outDir.
//
// Layout: for each plane in order, ceil(cells/64) little-endian u64
// bitboard words (one bit per cell; one word per plane for boards of 64
// cells or fewer), MovesNum x f32 little-endian probabilities (the
// reported probability for each move in rec.Probs, -1.0 for every other
// network index), then a single i8 winner in {-1, 0, +1}.
func (w *Writer) Write(rec selfplay.Record, outDir string) error {
	var winner *game.Player
	if !rec.Draw {
		winner = &rec.Winner
	}
	canonPos, canonProbs, canonWinner := canonicalize(rec.Position, rec.Probs, winner)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "serialize: create output directory")
	}
	path := filepath.Join(outDir, fmt.Sprintf("%d.bin", w.next(outDir)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "serialize: open output file")
	}
	defer f.Close()

	if err := writeRecord(f, canonPos, canonProbs, canonWinner, w.movesNum); err != nil {
		return errors.Wrap(err, "serialize: write record")
	}
	return nil
}

func (w *Writer) next(outDir string) int64 {
	w.mu.Lock()
	counter, ok := w.seq[outDir]
	if !ok {
		var c int64 = -1
		counter = &c
		w.seq[outDir] = counter
	}
	w.mu.Unlock()
	return atomic.AddInt64(counter, 1)
}

func canonicalize(pos game.Position, probs []mcts.MoveProb, winner *game.Player) (game.Position, []mcts.MoveProb, *game.Player) {
	if pos.Turn() == game.Player1 {
		return pos, probs, winner
	}
	flipped := pos.Flip()
	flippedProbs := make([]mcts.MoveProb, len(probs))
	for i, mp := range probs {
		flippedProbs[i] = mcts.MoveProb{Move: mp.Move.Flip(), Prob: mp.Prob}
	}
	var flippedWinner *game.Player
	if winner != nil {
		ww := winner.Opponent()
		flippedWinner = &ww
	}
	return flipped, flippedProbs, flippedWinner
}

func writeRecord(w io.Writer, pos game.Position, probs []mcts.MoveProb, winner *game.Player, movesNum int) error {
	for _, plane := range pos.Planes() {
		// A plane is packed into ceil(len(plane)/64) little-endian u64
		// words; boards of 64 cells or fewer (e.g. chess, TTT) collapse
		// to exactly the one-u64-per-plane layout of spec §6, while
		// larger boards (e.g. Hex's 121 cells) spill into further words
		// rather than silently truncating.
		for base := 0; base < len(plane); base += 64 {
			var word uint64
			end := base + 64
			if end > len(plane) {
				end = len(plane)
			}
			for i := base; i < end; i++ {
				if plane[i] {
					word |= 1 << uint(i-base)
				}
			}
			if err := binary.Write(w, binary.LittleEndian, word); err != nil {
				return err
			}
		}
	}

	probByIdx := make([]float32, movesNum)
	for i := range probByIdx {
		probByIdx[i] = -1.0
	}
	for _, mp := range probs {
		idx := mp.Move.ToNNIndex()
		if idx >= 0 && idx < movesNum {
			probByIdx[idx] = mp.Prob
		}
	}
	for _, p := range probByIdx {
		bits := math.Float32bits(p)
		if err := binary.Write(w, binary.LittleEndian, bits); err != nil {
			return err
		}
	}

	var winnerByte int8
	switch {
	case winner == nil:
		winnerByte = 0
	case *winner == game.Player1:
		winnerByte = 1
	default:
		winnerByte = -1
	}
	return binary.Write(w, binary.LittleEndian, winnerByte)
}
