// Package modelrunner defines the ModelRunner contract (component D):
// the single point where the core hands batched tensors to a neural
// network backend and gets tensors back. Per spec §2/§6 this component
// is external — the core depends only on this interface. No concrete
// ONNX/TorchScript/ExecuTorch backend ships here; nothing in the
// retrieved example pack carries a maintained pure-Go binding for one,
// so wiring a real backend would mean fabricating a fake dependency,
// which is worse than simply honoring the interface boundary the spec
// draws (see SPEC_FULL.md's DOMAIN STACK section).
package modelrunner

import (
	"context"

	"gorgonia.org/tensor"
)

// Runner executes one batch of position-plane tensors through a
// policy/value network.
//
// input is a single 4-D tensor shaped [B, C, H, W]. The two returned
// tensors are policy logits shaped [B, MovesNum] and values shaped
// [B, 1], matching spec §6's ModelRunner contract exactly.
type Runner interface {
	Run(ctx context.Context, input *tensor.Dense) (policyLogits *tensor.Dense, values *tensor.Dense, err error)
}
