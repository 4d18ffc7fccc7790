// Package valuefunc implements the ValueFunction (component E): it
// turns positions into plane-stack tensors, routes them through the
// cache and batcher onto a ModelRunner, and post-processes the raw
// network output back into a move-probability list and a scalar value.
//
// Grounded on the teacher's dualnet.Config (Width/Height/Features/
// BatchSize conventions, dualnet/config.go) and game/encoding.go's
// InputEncoder idiom, generalized from chess-only to any game.Position
// via game.Position.Planes().
package valuefunc

import (
	"context"
	"math"
	"time"

	"github.com/chewxy/math32"
	"gorgonia.org/tensor"

	"github.com/cattus-go/cattus/batcher"
	"github.com/cattus-go/cattus/cache"
	"github.com/cattus-go/cattus/game"
	"github.com/cattus-go/cattus/modelrunner"
)

// negInf32 stands in for f32::MIN: the most negative finite float32,
// used to sanitize non-finite policy logits (spec §4.4 step 5) so that
// a poisoned move never wins a softmax or an argmax.
const negInf32 = -math.MaxFloat32

type encodedInput struct {
	flat []float32
}

type rawOutput struct {
	policyLogits []float32
	value        float32
}

// Config configures a ValueFunction.
type Config struct {
	Channels  int
	Height    int
	Width     int
	MovesNum  int
	BatchSize int
	Deadline  time.Duration
	CacheSize int
}

// ValueFunction is safe for concurrent use by many MCTS workers.
type ValueFunction struct {
	cfg    Config
	cache  *cache.Cache
	batch  *batcher.Batcher[encodedInput, rawOutput]
	runner modelrunner.Runner
}

// New builds a ValueFunction over runner, with its own cache and
// batcher sized per cfg.
func New(runner modelrunner.Runner, cfg Config) *ValueFunction {
	return &ValueFunction{
		cfg:    cfg,
		cache:  cache.New(cfg.CacheSize),
		batch:  batcher.New[encodedInput, rawOutput](cfg.BatchSize),
		runner: runner,
	}
}

// Evaluate implements the full pipeline of spec §4.4: canonicalize,
// consult the cache, encode, batch+run, post-process, and un-flip.
func (vf *ValueFunction) Evaluate(ctx context.Context, pos game.Position) ([]cache.MoveProb, float32, error) {
	flipped := pos.Turn() == game.Player2
	canon := pos
	if flipped {
		canon = pos.Flip()
	}

	var computeErr error
	entry := vf.cache.GetOrCompute(canon, func() cache.Entry {
		probs, value, err := vf.infer(ctx, canon)
		if err != nil {
			computeErr = err
			return cache.Entry{}
		}
		return cache.Entry{Probs: probs, Value: value}
	})
	if computeErr != nil {
		return nil, 0, computeErr
	}

	if !flipped {
		return entry.Probs, entry.Value, nil
	}

	out := make([]cache.MoveProb, len(entry.Probs))
	for i, mp := range entry.Probs {
		out[i] = cache.MoveProb{Move: mp.Move.Flip(), Prob: mp.Prob}
	}
	return out, -entry.Value, nil
}

// infer runs the canonical position through encode -> batch -> run ->
// per-move softmax. It never flips; the caller handles canonicalization.
func (vf *ValueFunction) infer(ctx context.Context, canon game.Position) ([]cache.MoveProb, float32, error) {
	flat := encode(canon, vf.cfg.Channels, vf.cfg.Height, vf.cfg.Width)

	var runErr error
	out := vf.batch.Apply(encodedInput{flat: flat}, vf.cfg.Deadline, func(inputs []encodedInput) []rawOutput {
		results, err := vf.runBatch(ctx, inputs)
		if err != nil {
			runErr = err
			results = make([]rawOutput, len(inputs))
		}
		return results
	})
	if runErr != nil {
		return nil, 0, runErr
	}

	legal := canon.LegalMoves()
	probs := softmaxOverMoves(out.policyLogits, legal)
	return probs, out.value, nil
}

// runBatch pads inputs up to cfg.BatchSize zero rows, calls the model
// runner once, and sanitizes non-finite outputs per spec §4.4 step 5.
func (vf *ValueFunction) runBatch(ctx context.Context, inputs []encodedInput) ([]rawOutput, error) {
	rowLen := vf.cfg.Channels * vf.cfg.Height * vf.cfg.Width
	backing := make([]float32, vf.cfg.BatchSize*rowLen)
	for i, in := range inputs {
		copy(backing[i*rowLen:(i+1)*rowLen], in.flat)
	}
	input := tensor.New(tensor.WithBacking(backing), tensor.WithShape(vf.cfg.BatchSize, vf.cfg.Channels, vf.cfg.Height, vf.cfg.Width))

	policyT, valueT, err := vf.runner.Run(ctx, input)
	if err != nil {
		return nil, err
	}

	policyData := policyT.Data().([]float32)
	valueData := valueT.Data().([]float32)

	results := make([]rawOutput, len(inputs))
	for i := range inputs {
		logits := make([]float32, vf.cfg.MovesNum)
		copy(logits, policyData[i*vf.cfg.MovesNum:(i+1)*vf.cfg.MovesNum])
		for j, l := range logits {
			if math32.IsNaN(l) || math32.IsInf(l, 0) {
				logits[j] = negInf32
			}
		}
		v := valueData[i]
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			v = 0
		}
		results[i] = rawOutput{policyLogits: logits, value: v}
	}
	return results, nil
}

// encode flattens a position's plane stack into a C*H*W row-major
// float32 slice (the game-specific plane layouts are spec §4.4's
// normative chess/hex/ttt encodings, produced by each game package's
// Position.Planes()).
func encode(pos game.Position, channels, height, width int) []float32 {
	planes := pos.Planes()
	flat := make([]float32, channels*height*width)
	cellCount := height * width
	for c := 0; c < channels && c < len(planes); c++ {
		plane := planes[c]
		base := c * cellCount
		for i := 0; i < cellCount && i < len(plane); i++ {
			if plane[i] {
				flat[base+i] = 1
			}
		}
	}
	return flat
}

// softmaxOverMoves selects logits at each legal move's NN index,
// subtracts the max for numerical stability, exponentiates and
// normalizes, matching spec §4.4 step 6.
func softmaxOverMoves(logits []float32, legal []game.Move) []cache.MoveProb {
	if len(legal) == 0 {
		return nil
	}
	selected := make([]float32, len(legal))
	max := math32.Inf(-1)
	for i, m := range legal {
		v := logits[m.ToNNIndex()]
		selected[i] = v
		if v > max {
			max = v
		}
	}
	var sum float32
	for i, v := range selected {
		e := math32.Exp(v - max)
		selected[i] = e
		sum += e
	}
	out := make([]cache.MoveProb, len(legal))
	for i, m := range legal {
		p := selected[i]
		if sum > 0 {
			p /= sum
		} else {
			p = 1.0 / float32(len(legal))
		}
		out[i] = cache.MoveProb{Move: m, Prob: p}
	}
	return out
}
