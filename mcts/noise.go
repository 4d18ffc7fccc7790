package mcts

import (
	"math/rand"

	"github.com/chewxy/math32"
	distrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
)

const maxDirichletRedraws = 8

// addDirichletNoise perturbs n's children's init_score in place:
// init_score <- (1-eps)*init_score + eps*eta, eta ~ Dir(alpha,...,alpha).
// Matches the teacher's already-present (if unused for this purpose)
// dirichletSample field in mcts/tree.go, wired here via
// gonum.org/v1/gonum/stat/distmv the way the teacher imports it.
func addDirichletNoise(n *node, alpha, epsilon float32, src *rand.Rand) {
	k := len(n.edges)
	if alpha == 0 || epsilon == 0 || k < 2 {
		return
	}

	alphas := make([]float64, k)
	for i := range alphas {
		alphas[i] = float64(alpha)
	}

	var eta []float64
	for attempt := 0; attempt < maxDirichletRedraws; attempt++ {
		dist := distmv.NewDirichlet(alphas, distrand.NewSource(src.Uint64()))
		sample := dist.Rand(nil)
		if allFinite(sample) {
			eta = sample
			break
		}
	}
	if eta == nil {
		// Exhausted redraws; leave priors unperturbed rather than
		// poisoning them with a non-finite sample.
		return
	}

	for i, e := range n.edges {
		e.initScore = (1-epsilon)*e.initScore + epsilon*float32(eta[i])
	}
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		f := float32(x)
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return false
		}
	}
	return true
}
