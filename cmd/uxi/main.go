// Command uxi is a thin text front-end for Hex ("UXI"): it drives an
// mcts.Player from line-based standard input/output commands. Per
// spec §6 this protocol shell is out of core scope and specified only
// at the level of commands in and out.
//
// Grounded on the same Execute-dispatch-loop idiom as cmd/uci, adapted
// to Hex's coordinate notation (game/hex.Move.String, e.g. "c4").
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cattus-go/cattus/game"
	"github.com/cattus-go/cattus/game/hex"
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
		player:  mcts.NewPlayer(vf, params, hex.RepetitionLimit),
		history: []game.Position{hex.NewGame()},
	}
}

var errQuit = fmt.Errorf("quit")

func (s *session) execute(line string, out *bufio.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "uxi":
		fmt.Fprintln(out, "id name cattus-hex")
		fmt.Fprintln(out, "uxiok")
	case "isready":
		fmt.Fprintln(out, "readyok")
	case "newgame":
		s.player.Reset()
		s.history = []game.Position{hex.NewGame()}
	case "play":
		return s.play(fields[1:])
	case "go":
		return s.think(out)
	case "quit":
		return errQuit
	}
	return out.Flush()
}

func (s *session) play(args []string) error {
	current := s.history[len(s.history)-1]
	for _, mv := range args {
		m := findMoveByString(current, mv)
		if m == nil {
			return fmt.Errorf("uxi: illegal move %q", mv)
		}
		current = current.Apply(m)
		s.history = append(s.history, current)
	}
	s.player.Reset()
	return nil
}

func findMoveByString(pos game.Position, s string) game.Move {
	for _, m := range pos.LegalMoves() {
		if m.String() == s {
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
		fmt.Fprintln(out, "bestmove none")
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
	runner := reference.Uniform{MovesNum: hex.MovesNum}
	vf := valuefunc.New(runner, valuefunc.Config{
		Channels:  hex.Planes,
		Height:    hex.BoardSize,
		Width:     hex.BoardSize,
		MovesNum:  hex.MovesNum,
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
			fmt.Fprintln(os.Stderr, "uxi:", err)
		}
	}
}
