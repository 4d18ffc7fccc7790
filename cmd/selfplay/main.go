// Command selfplay is the self-play driver (spec §6 "Config (self-play
// driver)"): it reads a JSON config, builds a ValueFunction per game,
// and runs a SelfPlayOrchestrator, writing binary training records.
//
// Grounded on the teacher's own cmd/alphabeth main (config-driven
// Arena.Play invocation), adapted to the spec's config shape and
// exit-code contract (spec §6 "Exit codes").
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cattus-go/cattus/config"
	"github.com/cattus-go/cattus/game"
	"github.com/cattus-go/cattus/game/chess"
	"github.com/cattus-go/cattus/game/hex"
	"github.com/cattus-go/cattus/game/ttt"
	"github.com/cattus-go/cattus/mcts"
	"github.com/cattus-go/cattus/modelrunner"
	"github.com/cattus-go/cattus/modelrunner/reference"
	"github.com/cattus-go/cattus/selfplay"
	"github.com/cattus-go/cattus/serialize"
	"github.com/cattus-go/cattus/valuefunc"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to self-play JSON config")
	gameName := flag.String("game", "ttt", "game to self-play: chess, hex, or ttt")
	gamesNum := flag.Int("games", 2, "number of games to play (must be even)")
	threads := flag.Int("self-play-threads", 0, "override config threads if > 0")
	outDir1 := flag.String("out1", "out/profile1", "output directory for profile1 examples")
	outDir2 := flag.String("out2", "out/profile2", "output directory for profile2 examples")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "selfplay: -config is required")
		return 1
	}
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "selfplay:", err)
		return 1
	}

	info, newGame, movesNum, channels, height, width, err := resolveGame(*gameName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "selfplay:", err)
		return 1
	}

	t := cfg.Threads
	if *threads > 0 {
		t = *threads
	}

	runner := reference.Uniform{MovesNum: movesNum}
	vf := valuefunc.New(runner, valuefunc.Config{
		Channels:  channels,
		Height:    height,
		Width:     width,
		MovesNum:  movesNum,
		BatchSize: cfg.Model.BatchSize,
		Deadline:  cfg.Model.BatchDeadline(),
		CacheSize: cfg.Model.CacheSize,
	})

	params := cfg.MCTS.ToParams()
	orchCfg := selfplay.Config{
		GamesNum: *gamesNum,
		Threads:  t,
		Profile1: params,
		Profile2: params,
		NewPlayer: func(p mcts.Params) *mcts.Player {
			return mcts.NewPlayer(vf, p, info.RepetitionLimit)
		},
		NewGame:    newGame,
		OutDir1:    *outDir1,
		OutDir2:    *outDir2,
		Sink:       serialize.New(movesNum),
		Repetition: info.RepetitionLimit,
	}

	orch, err := selfplay.New(orchCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "selfplay:", err)
		return 1
	}

	p1, p2, err := orch.Run(context.Background())
	fmt.Println(selfplay.Summary(p1, p2))
	if err != nil {
		fmt.Fprintln(os.Stderr, "selfplay:", err)
		return 1
	}
	return 0
}

func resolveGame(name string) (info game.GameInfo, newGame func() game.Position, movesNum, channels, height, width int, err error) {
	switch name {
	case "chess":
		return chess.Info, func() game.Position { return chess.NewGame() },
			chess.MovesNum, chess.Planes, chess.BoardSize, chess.BoardSize, nil
	case "hex":
		return hex.Info, func() game.Position { return hex.NewGame() },
			hex.MovesNum, hex.Planes, hex.BoardSize, hex.BoardSize, nil
	case "ttt":
		return ttt.Info, func() game.Position { return ttt.NewGame() },
			ttt.MovesNum, ttt.Planes, ttt.BoardSize, ttt.BoardSize, nil
	default:
		return game.GameInfo{}, nil, 0, 0, 0, 0, fmt.Errorf("selfplay: unknown game %q", name)
	}
}

var _ modelrunner.Runner = reference.Uniform{}
