// Package ttt implements tic-tac-toe as a game.Position / game.Move
// pair, grounded on original_source's ttt net/position semantics and
// the spec §8.1 scenario notation ("oxxo__ox_x").
package ttt

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/cattus-go/cattus/game"
)

// BoardSize is 3x3.
const BoardSize = 3

const (
	MovesNum        = BoardSize * BoardSize
	RepetitionLimit = 0 // no repeats possible: cells only ever fill, never empty
	Planes          = 3 // X plane, O plane, all-ones
)

// Info is the GameInfo for tic-tac-toe.
var Info = game.GameInfo{BoardSize: BoardSize, MovesNum: MovesNum, RepetitionLimit: RepetitionLimit, Planes: Planes}

type cell uint8

const (
	empty cell = iota
	x
	o
)

// Position is a tic-tac-toe board. Zero value is not valid; use NewGame.
type Position struct {
	cells [BoardSize * BoardSize]cell
	turn  game.Player
}

var _ game.Position = (*Position)(nil)

// NewGame returns the empty board, X (Player1) to move.
func NewGame() *Position {
	return &Position{turn: game.Player1}
}

// FromString parses the scenario notation: BoardSize*BoardSize
// characters in row-major order ('x', 'o' or '_' for empty), followed
// by a single trailing 'x' or 'o' naming the side to move (e.g.
// "oxxo__ox_x" is the board "oxxo__ox_" with X to move next).
func FromString(s string) (*Position, error) {
	want := BoardSize*BoardSize + 1
	if len(s) != want {
		return nil, fmt.Errorf("ttt: scenario string must have %d characters, got %d", want, len(s))
	}
	p := &Position{}
	for i, r := range s[:BoardSize*BoardSize] {
		switch r {
		case 'x':
			p.cells[i] = x
		case 'o':
			p.cells[i] = o
		case '_':
			p.cells[i] = empty
		default:
			return nil, fmt.Errorf("ttt: invalid board character %q at position %d", r, i)
		}
	}
	switch s[BoardSize*BoardSize] {
	case 'x':
		p.turn = game.Player1
	case 'o':
		p.turn = game.Player2
	default:
		return nil, fmt.Errorf("ttt: invalid turn character %q", s[BoardSize*BoardSize])
	}
	return p, nil
}

func stoneFor(player game.Player) cell {
	if player == game.Player1 {
		return x
	}
	return o
}

func (p *Position) Turn() game.Player { return p.turn }

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func winnerCell(cells [9]cell) cell {
	for _, l := range lines {
		a, b, c := cells[l[0]], cells[l[1]], cells[l[2]]
		if a != empty && a == b && b == c {
			return a
		}
	}
	return empty
}

func full(cells [9]cell) bool {
	for _, c := range cells {
		if c == empty {
			return false
		}
	}
	return true
}

func (p *Position) Status() (game.Status, game.Player, bool) {
	switch winnerCell(p.cells) {
	case x:
		return game.Finished, game.Player1, true
	case o:
		return game.Finished, game.Player2, true
	}
	if full(p.cells) {
		return game.Finished, game.Player1, false
	}
	return game.Ongoing, game.Player1, false
}

func (p *Position) LegalMoves() []game.Move {
	if status, _, _ := p.Status(); status == game.Finished {
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

func (p *Position) Apply(m game.Move) game.Position {
	tm, ok := m.(Move)
	if !ok {
		panic(fmt.Sprintf("ttt: foreign move type %T", m))
	}
	if p.cells[tm.index] != empty {
		panic("ttt: illegal move applied to occupied cell")
	}
	np := p.Clone().(*Position)
	np.cells[tm.index] = stoneFor(p.turn)
	np.turn = p.turn.Opponent()
	return np
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
	o2, ok := other.(*Position)
	if !ok {
		return false
	}
	return p.turn == o2.turn && p.cells == o2.cells
}

func (p *Position) Clone() game.Position {
	np := *p
	return &np
}

func (p *Position) String() string {
	var b strings.Builder
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			switch p.cells[r*BoardSize+c] {
			case x:
				b.WriteByte('x')
			case o:
				b.WriteByte('o')
			default:
				b.WriteByte('_')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Flip swaps X and O stones; tic-tac-toe's board has no directional
// asymmetry so, unlike Hex, no geometric transform is needed.
func (p *Position) Flip() game.Position {
	np := &Position{turn: p.turn.Opponent()}
	for i, c := range p.cells {
		switch c {
		case x:
			np.cells[i] = o
		case o:
			np.cells[i] = x
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
		case x:
			planes[0][i] = true
		case o:
			planes[1][i] = true
		}
	}
	for i := range planes[2] {
		planes[2][i] = true
	}
	return planes
}

// Move places a mark at a board index (row*BoardSize+col).
type Move struct {
	index int
}

var _ game.Move = Move{}

func (m Move) String() string {
	return fmt.Sprintf("%d%d", m.index/BoardSize, m.index%BoardSize)
}

func (m Move) Equal(other game.Move) bool {
	o, ok := other.(Move)
	return ok && o.index == m.index
}

// Flip is the identity: the board has no geometric transform in
// Position.Flip, only the stone colors change.
func (m Move) Flip() game.Move { return m }

func (m Move) ToNNIndex() int { return m.index }
