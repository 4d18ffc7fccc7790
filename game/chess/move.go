package chess

import (
	notnil "github.com/notnil/chess"

	"github.com/cattus-go/cattus/game"
)

// MovesNum bounds Move.ToNNIndex(): 64 source squares * 64 dest squares *
// 5 promotion buckets (none, knight, bishop, rook, queen).
const MovesNum = 64 * 64 * 5

func promoBucket(p notnil.PieceType) int {
	switch p {
	case notnil.Knight:
		return 1
	case notnil.Bishop:
		return 2
	case notnil.Rook:
		return 3
	case notnil.Queen:
		return 4
	default:
		return 0
	}
}

func bucketToPromo(b int) notnil.PieceType {
	switch b {
	case 1:
		return notnil.Knight
	case 2:
		return notnil.Bishop
	case 3:
		return notnil.Rook
	case 4:
		return notnil.Queen
	default:
		return notnil.NoPieceType
	}
}

func promoLetter(p notnil.PieceType) string {
	switch p {
	case notnil.Knight:
		return "n"
	case notnil.Bishop:
		return "b"
	case notnil.Rook:
		return "r"
	case notnil.Queen:
		return "q"
	default:
		return ""
	}
}

func squareName(sq notnil.Square) string {
	file, rank := int(sq)%8, int(sq)/8
	return string(rune('a'+file)) + string(rune('1'+rank))
}

// Move wraps the game.Move contract around a chess move's squares and
// promotion piece.
//
// The notnil/chess v1.5.0 Move type exposes no public constructor (and
// no Tags getter) — moves only ever come from the engine itself, via
// Position.ValidMoves(). So m (the library's own move, when this Move
// wraps one returned by ValidMoves) is kept only for String()/Apply()
// (Apply resolves a move without m against the position's ValidMoves);
// every other operation, including Flip()'s mirrored, synthetic move
// that was never validated by the engine, works off the plain
// s1/s2/promo fields instead of calling back into m.
type Move struct {
	m     *notnil.Move // nil for a synthetic move produced by Flip
	s1    notnil.Square
	s2    notnil.Square
	promo notnil.PieceType
}

var _ game.Move = Move{}

// wrapMove adapts a move returned by notnil.Game.ValidMoves().
func wrapMove(m *notnil.Move) Move {
	return Move{m: m, s1: m.S1(), s2: m.S2(), promo: m.Promo()}
}

func (mv Move) String() string {
	if mv.m != nil {
		return mv.m.String()
	}
	return squareName(mv.s1) + squareName(mv.s2) + promoLetter(mv.promo)
}

// Equal reports whether two moves have the same source, destination and
// promotion piece.
func (mv Move) Equal(other game.Move) bool {
	o, ok := other.(Move)
	if !ok {
		return false
	}
	return mv.s1 == o.s1 && mv.s2 == o.s2 && mv.promo == o.promo
}

// Flip mirrors the move for the 180-degree-rotated board produced by
// Position.Flip: both source and destination squares are point-mirrored.
// The result is synthetic (m == nil): Position.Apply accepts it by
// matching its squares and promotion piece against the legal moves,
// which is how the search plays the un-flipped moves that inference
// returns for Player2-to-move positions.
func (mv Move) Flip() game.Move {
	f1, r1 := int(mv.s1)%8, int(mv.s1)/8
	f2, r2 := int(mv.s2)%8, int(mv.s2)/8
	ns1 := notnil.Square((7-r1)*8 + (7 - f1))
	ns2 := notnil.Square((7-r2)*8 + (7 - f2))
	return Move{s1: ns1, s2: ns2, promo: mv.promo}
}

// ToNNIndex returns the dense index ((from*64)+to)*5+promoBucket.
func (mv Move) ToNNIndex() int {
	return (int(mv.s1)*64+int(mv.s2))*5 + promoBucket(mv.promo)
}
