package mcts

import (
	"bytes"
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/chewxy/math32"

	"github.com/cattus-go/cattus/game"
	"github.com/cattus-go/cattus/valuefunc"
)

const maxReuseDepth = 3

// MoveProb pairs a move with its reported selection probability
// (visit_count(edge) / sum of visit_count(root edges)).
type MoveProb struct {
	Move game.Move
	Prob float32
}

// Player is an MctsPlayer (component F): it owns one search graph and
// drives PUCT selection, expansion, back-propagation and sub-tree
// reuse across successive moves.
//
// A Player is not safe for concurrent use: per spec §5, simulations
// within one player are sequential. Its ValueFunction is shared and
// thread-safe, so many Players (e.g. one per self-play worker) may
// evaluate concurrently through it.
type Player struct {
	params          Params
	valueFunc       *valuefunc.ValueFunction
	repetitionLimit int

	root    *node
	rootPos game.Position

	rnd *rand.Rand
	log *log.Logger
	buf bytes.Buffer
}

// NewPlayer constructs a Player with no root yet; the first call to
// ChooseMove or MoveProbabilities establishes it.
func NewPlayer(vf *valuefunc.ValueFunction, params Params, repetitionLimit int) *Player {
	p := &Player{
		params:          params,
		valueFunc:       vf,
		repetitionLimit: repetitionLimit,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	p.log = log.New(&p.buf, "", log.Ltime)
	return p
}

// Log returns the player's accumulated trace log (teacher-style,
// mirrors Arena.Log in the teacher).
func (p *Player) Log() string { return p.buf.String() }

// ChooseMove returns a sampled move per spec §4.1 step 4, or nil if the
// current position has no legal moves.
func (p *Player) ChooseMove(ctx context.Context, posHistory []game.Position) (game.Move, error) {
	probs, err := p.MoveProbabilities(ctx, posHistory)
	if err != nil {
		return nil, err
	}
	if len(probs) == 0 {
		return nil, nil
	}

	halfMove := len(posHistory) - 1
	tau := p.params.Temperature.TauFor(halfMove)

	if tau == 0 {
		best := 0
		bestP := float32(-1)
		for i, mp := range probs {
			if mp.Prob >= bestP {
				bestP = mp.Prob
				best = i
			}
		}
		return probs[best].Move, nil
	}

	reshaped := make([]float32, len(probs))
	var sum float32
	for i, mp := range probs {
		v := math32.Pow(mp.Prob, 1/tau)
		reshaped[i] = v
		sum += v
	}
	if sum <= 0 {
		return probs[0].Move, nil
	}
	r := p.rnd.Float32() * sum
	var accum float32
	for i, v := range reshaped {
		accum += v
		if r <= accum {
			return probs[i].Move, nil
		}
	}
	return probs[len(probs)-1].Move, nil
}

// MoveProbabilities runs sim_num simulations from the (possibly
// reused) root matching posHistory's current position, and reports
// root-edge visit fractions. Zero-visit legal moves are reported with
// probability 0, per spec §4.1.
func (p *Player) MoveProbabilities(ctx context.Context, posHistory []game.Position) ([]MoveProb, error) {
	current := posHistory[len(posHistory)-1]
	p.alignRoot(current)

	if len(p.root.position.LegalMoves()) == 0 {
		return nil, nil
	}

	for i := 0; i < p.params.SimNum; i++ {
		if err := p.simulate(ctx, posHistory); err != nil {
			return nil, err
		}
	}

	return p.LastProbabilities(), nil
}

// LastProbabilities reports the current root-edge visit fractions
// without running any further simulations. Used by callers (e.g. the
// self-play orchestrator) that need the distribution ChooseMove just
// sampled from, without triggering a second round of simulations.
func (p *Player) LastProbabilities() []MoveProb {
	if p.root == nil {
		return nil
	}
	root := p.root
	total := root.sumChildVisits()
	out := make([]MoveProb, len(root.edges))
	for i, e := range root.edges {
		var prob float32
		if total > 0 {
			prob = float32(e.visits) / float32(total)
		}
		out[i] = MoveProb{Move: e.move, Prob: prob}
	}
	return out
}

// alignRoot implements spec §4.1 step 1: search up to depth 3 for a node
// whose position equals current; re-root there (adding Dirichlet noise
// if it is already expanded), or discard and start fresh. The search is
// depth-first and stops at the first match in that order, which is not
// necessarily the shallowest match.
func (p *Player) alignRoot(current game.Position) {
	if p.root != nil {
		if found := findWithinDepth(p.root, current, maxReuseDepth); found != nil {
			p.root = found
			p.rootPos = current
			if p.root.expanded {
				addDirichletNoise(p.root, p.params.PriorNoiseAlpha, p.params.PriorNoiseEpsilon, p.rnd)
			}
			return
		}
	}
	p.root = newNode(current)
	p.rootPos = current
}

func findWithinDepth(n *node, target game.Position, depth int) *node {
	if n.position.Equal(target) {
		return n
	}
	if depth == 0 {
		return nil
	}
	for _, e := range n.edges {
		if e.child == nil {
			continue
		}
		if found := findWithinDepth(e.child, target, depth-1); found != nil {
			return found
		}
	}
	return nil
}

// pathStep records one selected edge and the position it was selected
// from, so back-propagation can compute each edge's sign independently.
type pathStep struct {
	parentPos game.Position
	e         *edge
}

// simulate runs one Select -> Evaluate/Expand -> Back-propagate pass.
func (p *Player) simulate(ctx context.Context, posHistory []game.Position) error {
	n := p.root
	pos := p.rootPos
	trajectory := make([]game.Position, 0, 32)
	trajectory = append(trajectory, pos)
	path := make([]pathStep, 0, 32)

	for {
		if status, winner, ok := pos.Status(); status == game.Finished {
			eval := terminalEval(winner, ok)
			p.backpropagate(path, eval)
			return nil
		}

		if !n.expanded {
			eval, err := p.expand(ctx, n, pos, posHistory, trajectory)
			if err != nil {
				return err
			}
			p.backpropagate(path, eval)
			return nil
		}

		e := p.selectEdge(n)
		parentPos := pos
		if e.child == nil {
			e.child = newNode(parentPos.Apply(e.move))
		}
		path = append(path, pathStep{parentPos: parentPos, e: e})
		n = e.child
		pos = n.position
		trajectory = append(trajectory, pos)
	}
}

func terminalEval(winner game.Player, ok bool) float32 {
	if !ok {
		return 0
	}
	if winner == game.Player1 {
		return 1
	}
	return -1
}

// expand implements spec §4.1 Evaluate/Expand for a non-terminal leaf,
// including root-only Dirichlet noise and repetition short-circuiting.
func (p *Player) expand(ctx context.Context, n *node, pos game.Position, posHistory, trajectory []game.Position) (float32, error) {
	if p.repetitionLimit > 0 && countOccurrences(posHistory, trajectory, pos) >= p.repetitionLimit {
		return 0, nil
	}

	probs, value, err := p.valueFunc.Evaluate(ctx, pos)
	if err != nil {
		return 0, err
	}

	n.edges = make([]*edge, len(probs))
	for i, mp := range probs {
		n.edges[i] = &edge{move: mp.Move, initScore: mp.Prob}
	}
	n.expanded = true

	if n == p.root {
		addDirichletNoise(n, p.params.PriorNoiseAlpha, p.params.PriorNoiseEpsilon, p.rnd)
	}

	return value, nil
}

// countOccurrences counts how many times target appears in the
// external history prefix followed by the current simulation
// trajectory, excluding the trajectory's own root entry (already the
// last element of history).
func countOccurrences(history, trajectory []game.Position, target game.Position) int {
	count := 0
	for _, pos := range history {
		if pos.Equal(target) {
			count++
		}
	}
	for i, pos := range trajectory {
		if i == 0 {
			continue // root already counted via history's last element
		}
		if pos.Equal(target) {
			count++
		}
	}
	return count
}

// selectEdge implements the PUCT formula of spec §4.1.
func (p *Player) selectEdge(n *node) *edge {
	// N_sims = 1 + sum of child visits; the numerator is sqrt(N_sims + 1).
	parentVisits := 1 + n.sumChildVisits()
	numerator := math32.Sqrt(float32(parentVisits) + 1)

	var best *edge
	bestScore := math32.Inf(-1)
	for _, e := range n.edges {
		denom := 1 + float32(e.visits)
		score := e.q() + p.params.ExploreFactor*e.initScore*numerator/denom
		if score > bestScore {
			bestScore = score
			best = e
		}
	}
	return best
}

func (p *Player) backpropagate(path []pathStep, eval float32) {
	for _, s := range path {
		sign := float32(1)
		if s.parentPos.Turn() != game.Player1 {
			sign = -1
		}
		s.e.visits++
		s.e.totalValu += sign * eval
	}
}

// Reset discards the search graph entirely (matching the teacher's
// MCTS.Reset, called between self-play games in Arena.Play).
func (p *Player) Reset() {
	p.root = nil
	p.rootPos = nil
}
