// Package config loads and validates the self-play driver's JSON
// configuration (spec §6 "Config (self-play driver)"): model backend
// selection, MCTS parameters, and worker thread count.
//
// Grounded on the teacher's dualnet.Config / mcts.Config JSON-tagged
// structs with an IsValid method (dualnet/config.go, mcts/config.go),
// generalized here into a single top-level Config with a validation
// pass that fails fast at start-up (spec §7 kind 1).
package config

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/cattus-go/cattus/mcts"
)

// InferenceKind selects a ModelRunner backend (spec §6 tagged union).
type InferenceKind string

const (
	InferenceONNXOrt   InferenceKind = "onnx-ort"
	InferenceONNXTract InferenceKind = "onnx-tract"
	InferenceTorchPy   InferenceKind = "torch-py"
	InferenceExecuTorch InferenceKind = "executorch"
)

// ModelConfig configures the model and its inference backend.
type ModelConfig struct {
	Inference InferenceKind `json:"inference"`
	// Device is only meaningful when Inference == InferenceTorchPy
	// (spec §6: "torch-py {device?}").
	Device    string `json:"device,omitempty"`
	BatchSize int    `json:"batch_size"`
	// BatchDeadlineMS bounds tail latency for a partially-filled batch
	// (spec §4.3), in milliseconds; zero means no wait, so a partially
	// filled batch is promoted as soon as its caller checks it. Kept as a
	// plain integer rather than time.Duration: JSON
	// has no native duration type, and unmarshaling a bare number
	// straight into a time.Duration silently takes it as nanoseconds,
	// turning "20" (meant as 20ms) into 20ns.
	BatchDeadlineMS int `json:"batch_deadline_ms"`
	CacheSize       int `json:"cache_size"`
}

// BatchDeadline returns the configured batch deadline as a
// time.Duration, converting from the JSON field's millisecond unit.
func (m ModelConfig) BatchDeadline() time.Duration {
	return time.Duration(m.BatchDeadlineMS) * time.Millisecond
}

// TemperatureStepConfig is one (threshold, tau) pair (spec §6).
type TemperatureStepConfig struct {
	Threshold int     `json:"threshold"`
	Tau       float32 `json:"tau"`
}

// MCTSConfig configures one MctsPlayer profile (spec §6 "mcts" block).
type MCTSConfig struct {
	SimNum             int                     `json:"sim_num"`
	ExploreFactor       float32                 `json:"explore_factor"`
	TemperaturePolicy   []TemperatureStepConfig `json:"temperature_policy"`
	LastTau             float32                 `json:"last_tau"`
	PriorNoiseAlpha     float32                 `json:"prior_noise_alpha"`
	PriorNoiseEpsilon   float32                 `json:"prior_noise_epsilon"`
}

// ToParams converts an MCTSConfig into mcts.Params, the type the
// search core actually consumes.
func (c MCTSConfig) ToParams() mcts.Params {
	steps := make([]mcts.TemperatureStep, len(c.TemperaturePolicy))
	for i, s := range c.TemperaturePolicy {
		steps[i] = mcts.TemperatureStep{Threshold: s.Threshold, Tau: s.Tau}
	}
	return mcts.Params{
		SimNum:        c.SimNum,
		ExploreFactor: c.ExploreFactor,
		Temperature: mcts.TemperaturePolicy{
			Steps: steps,
			Last:  c.LastTau,
		},
		PriorNoiseAlpha:   c.PriorNoiseAlpha,
		PriorNoiseEpsilon: c.PriorNoiseEpsilon,
	}
}

// Config is the top-level self-play driver configuration (spec §6).
type Config struct {
	Model   ModelConfig `json:"model"`
	MCTS    MCTSConfig  `json:"mcts"`
	Threads int         `json:"threads"`
}

// Load reads and validates a Config from r.
func Load(r io.Reader) (Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: invalid json")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile opens path and loads a Config from it.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: open")
	}
	defer f.Close()
	return Load(f)
}

// Validate implements spec §7 kind 1 fail-fast checks: invalid JSON is
// already caught by Load; this checks semantic validity.
func (c Config) Validate() error {
	switch c.Model.Inference {
	case InferenceONNXOrt, InferenceONNXTract, InferenceTorchPy, InferenceExecuTorch:
	default:
		return errors.Errorf("config: unknown model.inference %q", c.Model.Inference)
	}
	if c.Model.BatchSize <= 0 {
		return errors.Errorf("config: model.batch_size must be positive, got %d", c.Model.BatchSize)
	}
	if c.Model.CacheSize <= 0 {
		return errors.Errorf("config: model.cache_size must be positive, got %d", c.Model.CacheSize)
	}
	if c.Threads <= 0 {
		return errors.Errorf("config: threads must be positive, got %d", c.Threads)
	}
	params := c.MCTS.ToParams()
	if err := params.Validate(); err != nil {
		return errors.Wrap(err, "config: mcts")
	}
	return nil
}
