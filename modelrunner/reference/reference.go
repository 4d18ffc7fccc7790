// Package reference provides a deterministic ModelRunner used by tests
// and examples in lieu of a real inference backend: uniform policy
// logits and a zero value for every input, grounded on the teacher's
// own test-time pattern of swapping in a trivial Inferencer (see
// mcts-level tests in the pack that drive search with a stub value
// function to assert algorithmic properties rather than NN quality).
package reference

import (
	"context"

	"gorgonia.org/tensor"
)

// Uniform is a ModelRunner that returns a uniform policy and a zero
// value for every position in the batch.
type Uniform struct {
	MovesNum int
}

// Run implements modelrunner.Runner.
func (u Uniform) Run(_ context.Context, input *tensor.Dense) (*tensor.Dense, *tensor.Dense, error) {
	shape := input.Shape()
	batch := 1
	if len(shape) > 0 {
		batch = shape[0]
	}

	policyBacking := make([]float32, batch*u.MovesNum)
	for i := range policyBacking {
		policyBacking[i] = 1.0
	}
	policy := tensor.New(tensor.WithBacking(policyBacking), tensor.WithShape(batch, u.MovesNum))

	valueBacking := make([]float32, batch)
	values := tensor.New(tensor.WithBacking(valueBacking), tensor.WithShape(batch, 1))

	return policy, values, nil
}
