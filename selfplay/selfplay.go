// Package selfplay implements the SelfPlayOrchestrator (component G):
// N worker threads each drive an MctsPlayer pair through full games,
// recording training examples and tallying win/loss/draw counts.
//
// Grounded on the teacher's arena.go (Arena.Play's game loop, example
// recording and W/L/D bookkeeping), generalized from a fixed two-agent
// arena into an N-worker pool pulling game indices off a shared atomic
// counter, per spec §4.5.
package selfplay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/cattus-go/cattus/game"
	"github.com/cattus-go/cattus/mcts"
)

// Record is one training example: a position, its reported move
// probabilities, and the eventual game winner from Player1's
// perspective (the record serialize.Writer consumes).
type Record struct {
	Position game.Position
	Probs    []mcts.MoveProb
	Winner   game.Player
	Draw     bool
}

// Sink receives finished game records; typically a serialize.Writer.
type Sink interface {
	Write(rec Record, outDir string) error
}

// Tally holds cumulative win/loss/draw counts for one profile, summed
// over the games it played as Player1 and as Player2.
type Tally struct {
	Wins, Losses, Draws int64
}

// Config configures one orchestrator run (spec §4.5, §6 "mcts"/"threads").
type Config struct {
	GamesNum   int // must be even (spec §4.5 Fairness)
	Threads    int
	Profile1   mcts.Params
	Profile2   mcts.Params
	NewPlayer  func(params mcts.Params) *mcts.Player
	NewGame    func() game.Position
	OutDir1    string
	OutDir2    string
	Sink       Sink
	Repetition int
}

// Orchestrator runs self-play games across a worker pool.
type Orchestrator struct {
	cfg      Config
	nextGame int64

	mu     sync.Mutex
	tally1 Tally
	tally2 Tally
}

// New validates cfg and returns an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.GamesNum <= 0 || cfg.GamesNum%2 != 0 {
		return nil, errors.Errorf("selfplay: games_num must be a positive even number, got %d", cfg.GamesNum)
	}
	if cfg.Threads <= 0 {
		return nil, errors.Errorf("selfplay: threads must be > 0, got %d", cfg.Threads)
	}
	return &Orchestrator{cfg: cfg}, nil
}

// Run drives cfg.Threads workers until all cfg.GamesNum games have been
// played, returning the aggregate tallies for each profile and any
// I/O errors encountered (spec §7 kind 4: I/O failures are surfaced,
// not retried).
func (o *Orchestrator) Run(ctx context.Context) (p1, p2 Tally, err error) {
	var wg sync.WaitGroup
	var errs error
	var errMu sync.Mutex

	for w := 0; w < o.cfg.Threads; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			player1 := o.cfg.NewPlayer(o.cfg.Profile1)
			player2 := o.cfg.NewPlayer(o.cfg.Profile2)
			for {
				idx := atomic.AddInt64(&o.nextGame, 1) - 1
				if idx >= int64(o.cfg.GamesNum) {
					return
				}
				if err := o.playGame(ctx, int(idx), player1, player2); err != nil {
					errMu.Lock()
					errs = multierror.Append(errs, errors.Wrapf(err, "selfplay: worker %d game %d", workerID, idx))
					errMu.Unlock()
					return
				}
			}
		}(w)
	}
	wg.Wait()

	o.mu.Lock()
	p1, p2 = o.tally1, o.tally2
	o.mu.Unlock()
	return p1, p2, errs
}

// playGame plays one game to completion, recording every
// (position, move_probs) pair and writing the finished records through
// cfg.Sink; parity of gameIdx decides which profile moves first
// (spec §4.5 Fairness).
func (o *Orchestrator) playGame(ctx context.Context, gameIdx int, player1, player2 *mcts.Player) error {
	profile1First := gameIdx%2 == 0

	mover1, mover2 := player1, player2
	if !profile1First {
		mover1, mover2 = player2, player1
	}

	pos := o.cfg.NewGame()
	history := []game.Position{pos}

	type pending struct {
		mover *mcts.Player
		pos   game.Position
		probs []mcts.MoveProb
	}
	var recorded []pending

	current := mover1
	for {
		if status, _, _ := pos.Status(); status == game.Finished {
			break
		}
		move, err := current.ChooseMove(ctx, history)
		if err != nil {
			return err
		}
		if move == nil {
			break
		}
		recorded = append(recorded, pending{mover: current, pos: pos, probs: current.LastProbabilities()})
		pos = pos.Apply(move)
		history = append(history, pos)
		if current == mover1 {
			current = mover2
		} else {
			current = mover1
		}
	}

	status, winner, ok := pos.Status()
	if status != game.Finished {
		return errors.New("selfplay: game loop exited without a finished position")
	}

	for _, rec := range recorded {
		r := Record{Position: rec.pos, Probs: rec.probs, Winner: winner, Draw: !ok}
		outDir := o.outDirFor(rec.mover, mover1, profile1First)
		if err := o.cfg.Sink.Write(r, outDir); err != nil {
			return errors.Wrap(err, "selfplay: write record")
		}
	}

	o.updateTally(winner, ok, profile1First)
	player1.Reset()
	player2.Reset()
	return nil
}

// outDirFor chooses between OutDir1/OutDir2 so that each profile's
// examples land in its own directory regardless of which side it
// played in a given game (spec §4.5: player 1/player 2 appear equally
// in both directories across the run).
func (o *Orchestrator) outDirFor(mover, mover1 *mcts.Player, profile1First bool) string {
	isProfile1 := (mover == mover1) == profile1First
	if isProfile1 {
		return o.cfg.OutDir1
	}
	return o.cfg.OutDir2
}

// updateTally maps the board's winner (always expressed as board
// Player1/Player2, i.e. whoever moved first this game) back onto the
// profile that player corresponds to.
func (o *Orchestrator) updateTally(winner game.Player, ok bool, profile1First bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !ok {
		o.tally1.Draws++
		o.tally2.Draws++
		return
	}
	profile1Won := (profile1First && winner == game.Player1) || (!profile1First && winner == game.Player2)
	if profile1Won {
		o.tally1.Wins++
		o.tally2.Losses++
	} else {
		o.tally1.Losses++
		o.tally2.Wins++
	}
}

// Summary renders a human-readable win/loss/draw report, matching the
// teacher's Arena.Log summary style.
func Summary(p1, p2 Tally) string {
	return fmt.Sprintf("profile1: %d/%d/%d (w/l/d)  profile2: %d/%d/%d (w/l/d)",
		p1.Wins, p1.Losses, p1.Draws, p2.Wins, p2.Losses, p2.Draws)
}
