// Package chess adapts github.com/notnil/chess to the game.Position /
// game.Move contracts.
package chess

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	notnil "github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/cattus-go/cattus/game"
)

// BoardSize is 8x8.
const BoardSize = 8

// RepetitionLimit is chess's threefold-repetition count.
const RepetitionLimit = 3

// Planes is the channel count of the encoded position: 6 white piece
// planes, 6 black piece planes, 4 castling-right planes, 1 en-passant
// plane, 1 all-ones plane.
const Planes = 18

// Info is the GameInfo for chess.
var Info = game.GameInfo{BoardSize: BoardSize, MovesNum: MovesNum, RepetitionLimit: RepetitionLimit, Planes: Planes}

// Position wraps a *notnil.Game, always canonicalized so that the
// wrapped game's Position() is the position this value represents.
type Position struct {
	g *notnil.Game
}

var _ game.Position = Position{}

// NewGame returns the chess starting position.
func NewGame() Position {
	return Position{g: notnil.NewGame(notnil.UseNotation(notnil.UCINotation{}))}
}

// FromFEN builds a position from Forsyth-Edwards Notation.
func FromFEN(fen string) (Position, error) {
	fn, err := notnil.FEN(fen)
	if err != nil {
		return Position{}, errors.Wrap(err, "chess: invalid FEN")
	}
	return Position{g: notnil.NewGame(fn, notnil.UseNotation(notnil.UCINotation{}))}, nil
}

func colorToPlayer(c notnil.Color) game.Player {
	if c == notnil.Black {
		return game.Player2
	}
	return game.Player1
}

// Turn returns the side to move.
func (p Position) Turn() game.Player {
	return colorToPlayer(p.g.Position().Turn())
}

// LegalMoves enumerates legal moves.
func (p Position) LegalMoves() []game.Move {
	moves := p.g.ValidMoves()
	out := make([]game.Move, len(moves))
	for i, m := range moves {
		out[i] = wrapMove(m)
	}
	return out
}

// Apply plays m and returns the resulting position. m must have come
// from LegalMoves(); an illegal move panics (spec §7 kind 5).
func (p Position) Apply(m game.Move) game.Position {
	cm, ok := m.(Move)
	if !ok {
		panic(fmt.Sprintf("chess: foreign move type %T", m))
	}
	mv := cm.m
	if mv == nil {
		// A synthetic move (from Move.Flip) carries no engine move;
		// resolve it against this position's legal moves.
		for _, vm := range p.g.ValidMoves() {
			if vm.S1() == cm.s1 && vm.S2() == cm.s2 && vm.Promo() == cm.promo {
				mv = vm
				break
			}
		}
		if mv == nil {
			panic(fmt.Sprintf("chess: illegal move applied: %s", cm))
		}
	}
	ng := p.g.Clone()
	if err := ng.Move(mv); err != nil {
		panic(errors.Wrap(err, "chess: illegal move applied"))
	}
	return Position{g: ng}
}

// Status reports whether the game has ended and the winner.
func (p Position) Status() (game.Status, game.Player, bool) {
	switch p.g.Outcome() {
	case notnil.NoOutcome:
		return game.Ongoing, game.Player1, false
	case notnil.Draw:
		return game.Finished, game.Player1, false
	case notnil.WhiteWon:
		return game.Finished, game.Player1, true
	case notnil.BlackWon:
		return game.Finished, game.Player2, true
	default:
		return game.Finished, game.Player1, false
	}
}

// repetitionKey is the FEN subset (board, turn, castling, en passant)
// that repetition and equality are judged on; halfmove/fullmove clocks
// are excluded, matching standard threefold-repetition semantics.
func repetitionKey(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return fen
	}
	return strings.Join(fields[:4], " ")
}

// Hash returns an FNV-1a hash of the repetition key.
func (p Position) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(repetitionKey(p.g.Position().String())))
	return h.Sum64()
}

// Equal compares the repetition key of two positions.
func (p Position) Equal(other game.Position) bool {
	o, ok := other.(Position)
	if !ok {
		return false
	}
	return repetitionKey(p.g.Position().String()) == repetitionKey(o.g.Position().String())
}

// Clone returns an independent copy.
func (p Position) Clone() game.Position {
	return Position{g: p.g.Clone()}
}

func (p Position) String() string {
	return p.g.Position().String()
}

// Flip mirrors the board 180 degrees, swaps piece colors and swaps the
// side to move, so a Player2-to-move position becomes Player1-to-move.
// This is the standard AlphaZero-style
// chess canonicalization.
func (p Position) Flip() game.Position {
	mirrored := mirrorFEN(p.g.Position().String())
	np, err := FromFEN(mirrored)
	if err != nil {
		panic(errors.Wrap(err, "chess: flip produced invalid FEN"))
	}
	return np
}

func mirrorFEN(fen string) string {
	fields := strings.Fields(fen)
	board, turn, castling, ep := fields[0], fields[1], fields[2], fields[3]
	halfmove, fullmove := "0", "1"
	if len(fields) > 4 {
		halfmove = fields[4]
	}
	if len(fields) > 5 {
		fullmove = fields[5]
	}

	ranks := strings.Split(board, "/")
	mirroredRanks := make([]string, len(ranks))
	for i, rank := range ranks {
		mirroredRanks[len(ranks)-1-i] = reverseRank(rank)
	}
	newBoard := strings.Join(mirroredRanks, "/")
	newBoard = swapCase(newBoard)

	newTurn := "b"
	if turn == "b" {
		newTurn = "w"
	}

	newCastling := swapCastling(castling)
	newEP := mirrorSquare(ep)

	return fmt.Sprintf("%s %s %s %s %s %s", newBoard, newTurn, newCastling, newEP, halfmove, fullmove)
}

func reverseRank(rank string) string {
	runes := []rune(rank)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func swapCase(s string) string {
	out := make([]rune, len(s))
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			out[i] = r - ('a' - 'A')
		case r >= 'A' && r <= 'Z':
			out[i] = r + ('a' - 'A')
		default:
			out[i] = r
		}
	}
	return string(out)
}

func swapCastling(c string) string {
	if c == "-" {
		return c
	}
	return swapCase(c)
}

func mirrorSquare(sq string) string {
	if sq == "-" || len(sq) != 2 {
		return "-"
	}
	file := sq[0] - 'a'
	rank, err := strconv.Atoi(string(sq[1]))
	if err != nil {
		return "-"
	}
	newFile := 'a' + (7 - file)
	newRank := 9 - rank
	return fmt.Sprintf("%c%d", newFile, newRank)
}

var whitePieces = []notnil.PieceType{notnil.Pawn, notnil.Knight, notnil.Bishop, notnil.Rook, notnil.Queen, notnil.King}

// Planes returns the 18-plane encoding described in spec §4.4: six
// white piece planes, six black piece planes, four castling-right
// planes, one en-passant plane, one all-ones plane.
func (p Position) Planes() []game.Plane {
	planes := make([]game.Plane, Planes)
	for i := range planes {
		planes[i] = make(game.Plane, BoardSize*BoardSize)
	}

	sm := p.g.Position().Board().SquareMap()
	for sq, piece := range sm {
		idx := int(sq)
		if piece.Color() == notnil.White {
			for pi, pt := range whitePieces {
				if piece.Type() == pt {
					planes[pi][idx] = true
					break
				}
			}
		} else {
			for pi, pt := range whitePieces {
				if piece.Type() == pt {
					planes[6+pi][idx] = true
					break
				}
			}
		}
	}

	rights := p.g.Position().CastleRights()
	setAll := func(plane game.Plane, v bool) {
		for i := range plane {
			plane[i] = v
		}
	}
	setAll(planes[12], rights.CanCastle(notnil.White, notnil.KingSide))
	setAll(planes[13], rights.CanCastle(notnil.White, notnil.QueenSide))
	setAll(planes[14], rights.CanCastle(notnil.Black, notnil.KingSide))
	setAll(planes[15], rights.CanCastle(notnil.Black, notnil.QueenSide))

	if ep := p.g.Position().EnPassantSquare(); ep != notnil.NoSquare {
		planes[16][int(ep)] = true
	}

	setAll(planes[17], true)

	return planes
}
