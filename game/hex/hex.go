// Package hex implements the board game Hex as a game.Position /
// game.Move pair. Grounded on original_source/cattus-engine/src/hex/hex_game.rs
// for the connectivity-check semantics (edge-to-edge reachability, no
// union-find required at this board size).
package hex

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/cattus-go/cattus/game"
)

// BoardSize is the standard competitive Hex board side length.
const BoardSize = 11

// MovesNum is one index per cell; Hex has no repetitions (stones are
// never removed so no position recurs), hence RepetitionLimit = 0.
const (
	MovesNum        = BoardSize * BoardSize
	RepetitionLimit = 0
	Planes          = 3 // red stones, blue stones, all-ones
)

// Info is the GameInfo for hex.
var Info = game.GameInfo{BoardSize: BoardSize, MovesNum: MovesNum, RepetitionLimit: RepetitionLimit, Planes: Planes}

type cell uint8

const (
	empty cell = iota
	red        // Player1's stones; connects top row to bottom row.
	blue       // Player2's stones; connects left column to right column.
)

// Position is a Hex board. Zero value is not valid; use NewGame.
type Position struct {
	cells [BoardSize * BoardSize]cell
	turn  game.Player
}

var _ game.Position = (*Position)(nil)

// NewGame returns the empty Hex starting position, red (Player1) to move.
func NewGame() *Position {
	return &Position{turn: game.Player1}
}

func idx(r, c int) int { return r*BoardSize + c }

func (p *Position) Turn() game.Player { return p.turn }

func stoneFor(player game.Player) cell {
	if player == game.Player1 {
		return red
	}
	return blue
}

// LegalMoves lists every empty cell, unless the game has already ended.
func (p *Position) LegalMoves() []game.Move {
	if _, ended, _ := p.terminal(); ended {
		return nil
	}
	moves := make([]game.Move, 0, MovesNum)
	for i, c := range p.cells {
		if c == empty {
			moves = append(moves, Move{index: i})
		}
	}
	return moves
}

// Apply places a stone for the side to move.
func (p *Position) Apply(m game.Move) game.Position {
	hm, ok := m.(Move)
	if !ok {
		panic(fmt.Sprintf("hex: foreign move type %T", m))
	}
	if p.cells[hm.index] != empty {
		panic("hex: illegal move applied to occupied cell")
	}
	np := p.Clone().(*Position)
	np.cells[hm.index] = stoneFor(p.turn)
	np.turn = p.turn.Opponent()
	return np
}

// terminal returns (winner, ended, ok) by checking top-bottom
// connectivity for red and left-right connectivity for blue via BFS;
// ok always equals ended, since Hex has no draws.
func (p *Position) terminal() (game.Player, bool, bool) {
	if p.connects(red) {
		return game.Player1, true, true
	}
	if p.connects(blue) {
		return game.Player2, true, true
	}
	return game.Player1, false, false
}

// neighborOffsets are the six hex-adjacency directions; note the main
// diagonal ((1,1) and (-1,-1)) is adjacent, not the anti-diagonal.
var neighborOffsets = [6][2]int{{0, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, 0}, {1, 1}}

func (p *Position) connects(c cell) bool {
	visited := make([]bool, BoardSize*BoardSize)
	queue := make([]int, 0, BoardSize)
	reachedFar := false

	if c == red {
		for col := 0; col < BoardSize; col++ {
			i := idx(0, col)
			if p.cells[i] == red && !visited[i] {
				visited[i] = true
				queue = append(queue, i)
			}
		}
	} else {
		for row := 0; row < BoardSize; row++ {
			i := idx(row, 0)
			if p.cells[i] == blue && !visited[i] {
				visited[i] = true
				queue = append(queue, i)
			}
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		r, col := cur/BoardSize, cur%BoardSize
		if (c == red && r == BoardSize-1) || (c == blue && col == BoardSize-1) {
			reachedFar = true
		}
		for _, off := range neighborOffsets {
			nr, nc := r+off[0], col+off[1]
			if nr < 0 || nr >= BoardSize || nc < 0 || nc >= BoardSize {
				continue
			}
			ni := idx(nr, nc)
			if !visited[ni] && p.cells[ni] == c {
				visited[ni] = true
				queue = append(queue, ni)
			}
		}
	}
	return reachedFar
}

// Status reports game end; Hex has no draws.
func (p *Position) Status() (game.Status, game.Player, bool) {
	winner, ended, ok := p.terminal()
	if !ended {
		return game.Ongoing, game.Player1, false
	}
	return game.Finished, winner, ok
}

func (p *Position) Hash() uint64 {
	h := fnv.New64a()
	buf := make([]byte, BoardSize*BoardSize+1)
	for i, c := range p.cells {
		buf[i] = byte(c)
	}
	buf[BoardSize*BoardSize] = byte(p.turn)
	_, _ = h.Write(buf)
	return h.Sum64()
}

func (p *Position) Equal(other game.Position) bool {
	o, ok := other.(*Position)
	if !ok {
		return false
	}
	return p.turn == o.turn && p.cells == o.cells
}

func (p *Position) Clone() game.Position {
	np := *p
	return &np
}

func (p *Position) String() string {
	var b strings.Builder
	for r := 0; r < BoardSize; r++ {
		b.WriteString(strings.Repeat(" ", r))
		for c := 0; c < BoardSize; c++ {
			switch p.cells[idx(r, c)] {
			case red:
				b.WriteByte('R')
			case blue:
				b.WriteByte('B')
			default:
				b.WriteByte('.')
			}
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Flip transposes the board (swapping the roles of rows and columns)
// and swaps red/blue stones, which is the standard Hex canonicalization:
// whichever color is to move always "sees itself" as red connecting
// top-to-bottom.
func (p *Position) Flip() game.Position {
	np := &Position{turn: p.turn.Opponent()}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			v := p.cells[idx(r, c)]
			switch v {
			case red:
				np.cells[idx(c, r)] = blue
			case blue:
				np.cells[idx(c, r)] = red
			}
		}
	}
	return np
}

func (p *Position) Planes() []game.Plane {
	planes := make([]game.Plane, Planes)
	for i := range planes {
		planes[i] = make(game.Plane, BoardSize*BoardSize)
	}
	for i, c := range p.cells {
		switch c {
		case red:
			planes[0][i] = true
		case blue:
			planes[1][i] = true
		}
	}
	for i := range planes[2] {
		planes[2][i] = true
	}
	return planes
}

// Move places a stone at a given board index (row*BoardSize+col).
type Move struct {
	index int
}

var _ game.Move = Move{}

func (m Move) String() string {
	return fmt.Sprintf("%c%d", 'a'+m.index%BoardSize, m.index/BoardSize+1)
}

func (m Move) Equal(other game.Move) bool {
	o, ok := other.(Move)
	return ok && o.index == m.index
}

// Flip mirrors the move across the same transposition used by
// Position.Flip.
func (m Move) Flip() game.Move {
	r, c := m.index/BoardSize, m.index%BoardSize
	return Move{index: idx(c, r)}
}

func (m Move) ToNNIndex() int { return m.index }
