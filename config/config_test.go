package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{
	"model": {
		"inference": "onnx-ort",
		"batch_size": 32,
		"batch_deadline_ms": 2000000,
		"cache_size": 100000
	},
	"mcts": {
		"sim_num": 800,
		"explore_factor": 1.4,
		"temperature_policy": [{"threshold": 30, "tau": 1.0}],
		"last_tau": 0.1,
		"prior_noise_alpha": 0.3,
		"prior_noise_epsilon": 0.25
	},
	"threads": 4
}`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(strings.NewReader(validJSON))
	require.NoError(t, err)
	assert.Equal(t, InferenceONNXOrt, cfg.Model.Inference)
	assert.Equal(t, 32, cfg.Model.BatchSize)
	assert.Equal(t, 4, cfg.Threads)

	params := cfg.MCTS.ToParams()
	require.NoError(t, params.Validate())
	assert.Equal(t, 800, params.SimNum)
	assert.Equal(t, float32(0.1), params.Temperature.TauFor(1000))
	assert.Equal(t, float32(1.0), params.Temperature.TauFor(0))
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	_, err := Load(strings.NewReader(`{not json`))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader(`{"model":{"inference":"onnx-ort","batch_size":1,"cache_size":1},"mcts":{"sim_num":1,"temperature_policy":[],"last_tau":0},"threads":1,"bogus":true}`))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownInferenceKind(t *testing.T) {
	_, err := Load(strings.NewReader(`{"model":{"inference":"magic","batch_size":1,"cache_size":1},"mcts":{"sim_num":1,"temperature_policy":[],"last_tau":0},"threads":1}`))
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveSimNum(t *testing.T) {
	_, err := Load(strings.NewReader(`{"model":{"inference":"onnx-ort","batch_size":1,"cache_size":1},"mcts":{"sim_num":0,"temperature_policy":[],"last_tau":0},"threads":1}`))
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangeNoiseEpsilon(t *testing.T) {
	_, err := Load(strings.NewReader(`{"model":{"inference":"onnx-ort","batch_size":1,"cache_size":1},"mcts":{"sim_num":1,"prior_noise_epsilon":1.5,"temperature_policy":[],"last_tau":0},"threads":1}`))
	assert.Error(t, err)
}

func TestLoadRejectsNonMonotonicTemperatureThresholds(t *testing.T) {
	_, err := Load(strings.NewReader(`{"model":{"inference":"onnx-ort","batch_size":1,"cache_size":1},"mcts":{"sim_num":1,"temperature_policy":[{"threshold":10,"tau":1},{"threshold":5,"tau":0.5}],"last_tau":0},"threads":1}`))
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveBatchSize(t *testing.T) {
	_, err := Load(strings.NewReader(`{"model":{"inference":"onnx-ort","batch_size":0,"cache_size":1},"mcts":{"sim_num":1,"temperature_policy":[],"last_tau":0},"threads":1}`))
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveCacheSize(t *testing.T) {
	_, err := Load(strings.NewReader(`{"model":{"inference":"onnx-ort","batch_size":1,"cache_size":0},"mcts":{"sim_num":1,"temperature_policy":[],"last_tau":0},"threads":1}`))
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveThreads(t *testing.T) {
	_, err := Load(strings.NewReader(`{"model":{"inference":"onnx-ort","batch_size":1,"cache_size":1},"mcts":{"sim_num":1,"temperature_policy":[],"last_tau":0},"threads":0}`))
	assert.Error(t, err)
}

func TestLoadFileMissingPath(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/to/config.json")
	assert.Error(t, err)
}
