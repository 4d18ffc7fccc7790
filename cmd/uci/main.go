// Command uci is a thin UCI front-end for chess: it drives an
// mcts.Player from standard input/output commands. Per spec §6 it is
// out of core scope and specified only at the level of commands in and
// out; this is one reasonable shell over the engine.
//
// Grounded on the dispatch-by-first-word Execute loop of
// easychessanimations-zurichess's uci.go, adapted to call into
// mcts.Player instead of that engine's own search.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cattus-go/cattus/game"
	"github.com/cattus-go/cattus/game/chess"
	"github.com/cattus-go/cattus/mcts"
	"github.com/cattus-go/cattus/modelrunner/reference"
	"github.com/cattus-go/cattus/valuefunc"
)

type session struct {
	player  *mcts.Player
	history []game.Position
}

func newSession(vf *valuefunc.ValueFunction, params mcts.Params) *session {
	return &session{
		player:  mcts.NewPlayer(vf, params, chess.RepetitionLimit),
		history: []game.Position{chess.NewGame()},
	}
}

func (s *session) execute(line string, out *bufio.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "uci":
		fmt.Fprintln(out, "id name cattus")
		fmt.Fprintln(out, "id author cattus contributors")
		fmt.Fprintln(out, "uciok")
	case "isready":
		fmt.Fprintln(out, "readyok")
	case "ucinewgame":
		s.player.Reset()
		s.history = []game.Position{chess.NewGame()}
	case "position":
		return s.setPosition(fields[1:])
	case "go":
		return s.think(out)
	case "quit":
		return errQuit
	}
	return out.Flush()
}

var errQuit = fmt.Errorf("quit")

func (s *session) setPosition(args []string) error {
	if len(args) == 0 {
		return nil
	}
	var pos game.Position
	rest := args[1:]
	switch args[0] {
	case "startpos":
		pos = chess.NewGame()
	case "fen":
		if len(rest) < 6 {
			return fmt.Errorf("uci: position fen requires 6 fields")
		}
		p, err := chess.FromFEN(strings.Join(rest[:6], " "))
		if err != nil {
			return err
		}
		pos = p
		rest = rest[6:]
	default:
		return fmt.Errorf("uci: unknown position kind %q", args[0])
	}

	history := []game.Position{pos}
	if len(rest) > 0 && rest[0] == "moves" {
		for _, uciMove := range rest[1:] {
			m := findMoveByUCI(pos, uciMove)
			if m == nil {
				return fmt.Errorf("uci: illegal move %q", uciMove)
			}
			pos = pos.Apply(m)
			history = append(history, pos)
		}
	}
	s.player.Reset()
	s.history = history
	return nil
}

func findMoveByUCI(pos game.Position, uciMove string) game.Move {
	for _, m := range pos.LegalMoves() {
		if m.String() == uciMove {
			return m
		}
	}
	return nil
}

func (s *session) think(out *bufio.Writer) error {
	current := s.history[len(s.history)-1]
	move, err := s.player.ChooseMove(context.Background(), s.history)
	if err != nil {
		return err
	}
	if move == nil {
		fmt.Fprintln(out, "bestmove 0000")
		return out.Flush()
	}
	s.history = append(s.history, current.Apply(move))
	fmt.Fprintf(out, "bestmove %s\n", move.String())
	return out.Flush()
}

func main() {
	simNum := flag.Int("sim-num", 400, "simulations per move")
	exploreFactor := flag.Float64("explore-factor", 1.4, "PUCT exploration constant")
	flag.Parse()

	params := mcts.Params{
		SimNum:        *simNum,
		ExploreFactor: float32(*exploreFactor),
		Temperature:   mcts.Constant(0),
	}
	runner := reference.Uniform{MovesNum: chess.MovesNum}
	vf := valuefunc.New(runner, valuefunc.Config{
		Channels:  chess.Planes,
		Height:    chess.BoardSize,
		Width:     chess.BoardSize,
		MovesNum:  chess.MovesNum,
		BatchSize: 8,
		CacheSize: 1 << 16,
	})
	s := newSession(vf, params)

	in := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	for in.Scan() {
		if err := s.execute(in.Text(), out); err != nil {
			if err == errQuit {
				return
			}
			fmt.Fprintln(os.Stderr, "uci:", err)
		}
	}
}
