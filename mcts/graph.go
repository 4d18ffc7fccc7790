package mcts

import "github.com/cattus-go/cattus/game"

// edge is a SearchEdge (spec §3): a move out of a node plus the PUCT
// accumulators.
type edge struct {
	move      game.Move
	initScore float32
	visits    uint32
	totalValu float32
	child     *node // lazily created on first traversal
}

func (e *edge) q() float32 {
	if e.visits == 0 {
		return 0
	}
	return e.totalValu / float32(e.visits)
}

// node is a SearchNode (spec §3): just a position, plus its out-edges
// once expanded.
//
// Unlike the teacher's mcts.MCTS (an arena of struct-of-arrays indexed
// by a Naughty handle, chosen there to dodge index-stability issues in
// a general directed-graph container) this is a plain pointer tree.
// Spec §9 explicitly allows either; the teacher's own arena approach
// exists to work around a graph library this implementation doesn't
// use, so a pointer tree collected normally by the Go garbage collector
// is the idiomatic choice here, and sub-tree transplantation (spec
// §4.1) is simply repointing the root rather than copying an arena.
type node struct {
	position game.Position
	edges    []*edge
	expanded bool
}

func newNode(pos game.Position) *node {
	return &node{position: pos}
}

// sumChildVisits returns the total number of back-propagations that
// have traversed any of n's out-edges.
func (n *node) sumChildVisits() uint32 {
	var total uint32
	for _, e := range n.edges {
		total += e.visits
	}
	return total
}

// findChild returns the out-edge whose move equals m, or nil.
func (n *node) findChild(m game.Move) *edge {
	for _, e := range n.edges {
		if e.move.Equal(m) {
			return e
		}
	}
	return nil
}
