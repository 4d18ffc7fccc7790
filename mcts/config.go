// Package mcts implements the search core (component F): a persistent,
// partially-reused search graph with PUCT selection, Dirichlet prior
// noise, repetition detection and sub-tree transplantation across moves.
//
// Grounded on the teacher's mcts package (mcts/node.go's Select, the
// PUCT formula; mcts/tree.go's Config/dirichletSample fields), adapted
// from a chess-only, multithreaded-per-player design to the spec's
// sequential-per-player, game-agnostic one (see SPEC_FULL.md's mcts
// section for the point-by-point mapping).
package mcts

import "github.com/pkg/errors"

// TemperatureStep is one (threshold, tau) pair of a temperature
// schedule: the first step whose Threshold is greater than the
// half-move index wins.
type TemperatureStep struct {
	Threshold int
	Tau       float32
}

// TemperaturePolicy selects a sampling temperature from the half-move
// index, per spec §4.1.
type TemperaturePolicy struct {
	Steps []TemperatureStep
	Last  float32
}

// Constant returns a TemperaturePolicy with a single, constant tau.
func Constant(tau float32) TemperaturePolicy {
	return TemperaturePolicy{Last: tau}
}

// TauFor returns the temperature for halfMove: the first step whose
// Threshold is strictly greater than halfMove, else Last.
func (tp TemperaturePolicy) TauFor(halfMove int) float32 {
	for _, step := range tp.Steps {
		if halfMove < step.Threshold {
			return step.Tau
		}
	}
	return tp.Last
}

// Validate enforces spec §7.1: thresholds strictly increasing and every
// tau >= 0, Last included. An empty Steps list is accepted: the policy
// is then the constant Last.
func (tp TemperaturePolicy) Validate() error {
	prev := -1
	for _, step := range tp.Steps {
		if step.Threshold <= prev {
			return errors.Errorf("mcts: temperature thresholds must be strictly increasing, got %d after %d", step.Threshold, prev)
		}
		if step.Tau < 0 {
			return errors.Errorf("mcts: temperature must be >= 0, got %v", step.Tau)
		}
		prev = step.Threshold
	}
	if tp.Last < 0 {
		return errors.Errorf("mcts: final temperature must be >= 0, got %v", tp.Last)
	}
	return nil
}

// Params configures one MctsPlayer (spec §3 MctsParams).
type Params struct {
	SimNum            int
	ExploreFactor     float32
	Temperature       TemperaturePolicy
	PriorNoiseAlpha   float32
	PriorNoiseEpsilon float32
}

// Validate enforces spec §7.1's configuration-error checks.
func (p Params) Validate() error {
	if p.SimNum <= 0 {
		return errors.Errorf("mcts: sim_num must be > 0, got %d", p.SimNum)
	}
	if p.ExploreFactor < 0 {
		return errors.Errorf("mcts: explore_factor must be >= 0, got %v", p.ExploreFactor)
	}
	if p.PriorNoiseAlpha < 0 {
		return errors.Errorf("mcts: prior_noise_alpha must be >= 0, got %v", p.PriorNoiseAlpha)
	}
	if p.PriorNoiseEpsilon < 0 || p.PriorNoiseEpsilon > 1 {
		return errors.Errorf("mcts: prior_noise_epsilon must be in [0,1], got %v", p.PriorNoiseEpsilon)
	}
	return p.Temperature.Validate()
}
