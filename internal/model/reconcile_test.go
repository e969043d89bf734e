package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/config"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

func batchingSignature() *Signature {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "image", InModelName: "serving_image:0", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 784}})
	sig.AddOutput(&IO{Name: "logits", InModelName: "serving_logits:0", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 10}})
	return sig
}

func batchingConfig() *config.ModelConfig {
	return &config.ModelConfig{
		Name:         "mnist",
		MaxBatchSize: 8,
		Input:        []config.TensorConfig{{Name: "image", DataType: "TYPE_FP32", Dims: []int64{784}}},
		Output:       []config.TensorConfig{{Name: "logits", DataType: "TYPE_FP32", Dims: []int64{10}}},
	}
}

func TestValidateHappyPath(t *testing.T) {
	cfg := batchingConfig()
	sig := batchingSignature()

	inMap, outMap, err := Validate(cfg, sig)
	assert.NoError(t, err)
	assert.Equal(t, "serving_image:0", inMap.InModel("image"))
	assert.Equal(t, "serving_logits:0", outMap.InModel("logits"))
	assert.Equal(t, "logits", outMap.ConfigName("serving_logits:0"))
}

// Validating an already-valid configuration twice yields the same result and
// no mutation.
func TestValidateIdempotent(t *testing.T) {
	cfg := batchingConfig()
	sig := batchingSignature()

	_, _, err := Validate(cfg, sig)
	assert.NoError(t, err)
	before := *cfg
	_, _, err = Validate(cfg, sig)
	assert.NoError(t, err)
	assert.Equal(t, before, *cfg)
}

func TestValidateInputCountMismatch(t *testing.T) {
	cfg := batchingConfig()
	sig := batchingSignature()
	sig.AddInput(&IO{Name: "extra", InModelName: "extra:0", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 1}})

	_, _, err := Validate(cfg, sig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "configuration expects 1 inputs, model provides 2")
}

func TestValidateDataTypeMismatch(t *testing.T) {
	cfg := batchingConfig()
	cfg.Input[0].DataType = "TYPE_INT32"

	_, _, err := Validate(cfg, batchingSignature())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "datatype")
}

func TestValidateUnknownDataType(t *testing.T) {
	cfg := batchingConfig()
	cfg.Output[0].DataType = "TYPE_TENSOR"

	_, _, err := Validate(cfg, batchingSignature())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported datatype")
}

func TestValidateDimsMismatch(t *testing.T) {
	cfg := batchingConfig()
	cfg.Input[0].Dims = []int64{783}

	_, _, err := Validate(cfg, batchingSignature())
	assert.Error(t, err)
}

// Inputs tolerate model wildcards; outputs must match exactly.
func TestValidateOutputsCompareExact(t *testing.T) {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "in", InModelName: "in", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, -1}})
	sig.AddOutput(&IO{Name: "out", InModelName: "out", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, -1}})
	cfg := &config.ModelConfig{
		Name:         "wild",
		MaxBatchSize: 4,
		Input:        []config.TensorConfig{{Name: "in", DataType: "TYPE_FP32", Dims: []int64{5}}},
		Output:       []config.TensorConfig{{Name: "out", DataType: "TYPE_FP32", Dims: []int64{5}}},
	}

	_, _, err := Validate(cfg, sig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "out")
}

func TestValidateRaggedInput(t *testing.T) {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "tokens", InModelName: "tokens", DataType: types.DataTypeInt32, Shape: tensor.Shape{-1}})
	sig.AddOutput(&IO{Name: "out", InModelName: "out", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 1}})
	cfg := &config.ModelConfig{
		Name:         "ragged",
		MaxBatchSize: 4,
		Input:        []config.TensorConfig{{Name: "tokens", DataType: "TYPE_INT32", Dims: []int64{-1}, AllowRaggedBatch: true}},
		Output:       []config.TensorConfig{{Name: "out", DataType: "TYPE_FP32", Dims: []int64{1}}},
	}

	_, _, err := Validate(cfg, sig)
	assert.NoError(t, err)
}

func TestValidateRaggedInputNeedsFlatModelShape(t *testing.T) {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "tokens", InModelName: "tokens", DataType: types.DataTypeInt32, Shape: tensor.Shape{-1, 4}})
	sig.AddOutput(&IO{Name: "out", InModelName: "out", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 1}})
	cfg := &config.ModelConfig{
		Name:         "ragged",
		MaxBatchSize: 4,
		Input:        []config.TensorConfig{{Name: "tokens", DataType: "TYPE_INT32", Dims: []int64{-1}, AllowRaggedBatch: true}},
		Output:       []config.TensorConfig{{Name: "out", DataType: "TYPE_FP32", Dims: []int64{1}}},
	}

	_, _, err := Validate(cfg, sig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "shape [-1] for ragged input")
}

// A model that reports no shape gets one backfilled from the configuration,
// with a wildcard batch slot.
func TestValidateBackfillsUnknownRank(t *testing.T) {
	sig := NewSignature()
	input := &IO{Name: "image", InModelName: "image", DataType: types.DataTypeFP32, Shape: tensor.Shape{}}
	sig.AddInput(input)
	sig.AddOutput(&IO{Name: "logits", InModelName: "logits", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 10}})
	cfg := batchingConfig()

	_, _, err := Validate(cfg, sig)
	assert.NoError(t, err)
	assert.Equal(t, tensor.Shape{-1, 784}, input.Shape)
}

func TestValidateBatchOutputSkipsShapeCheck(t *testing.T) {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "in", InModelName: "in", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 4}})
	sig.AddOutput(&IO{Name: "scattered", InModelName: "scattered", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1}})
	cfg := &config.ModelConfig{
		Name:         "scatter",
		MaxBatchSize: 4,
		Input:        []config.TensorConfig{{Name: "in", DataType: "TYPE_FP32", Dims: []int64{4}}},
		Output:       []config.TensorConfig{{Name: "scattered", DataType: "TYPE_FP32", Dims: []int64{2, 2}}},
		BatchOutput: []config.BatchOutput{
			{Kind: config.BatchOutputScatterWithInputShape, TargetNames: []string{"scattered"}, SourceInput: []string{"in"}},
		},
	}

	_, _, err := Validate(cfg, sig)
	assert.NoError(t, err)
}

func TestValidateSequenceControls(t *testing.T) {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "in", InModelName: "in", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 4}})
	sig.AddInput(&IO{Name: "start", InModelName: "start", DataType: types.DataTypeInt32, Shape: tensor.Shape{-1, 1}})
	sig.AddOutput(&IO{Name: "out", InModelName: "out", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 4}})
	cfg := &config.ModelConfig{
		Name:         "seq",
		MaxBatchSize: 4,
		Input:        []config.TensorConfig{{Name: "in", DataType: "TYPE_FP32", Dims: []int64{4}}},
		Output:       []config.TensorConfig{{Name: "out", DataType: "TYPE_FP32", Dims: []int64{4}}},
		SequenceBatching: &config.SequenceBatching{
			ControlInput: []config.ControlInput{
				{Name: "start", Control: []config.Control{{Kind: config.ControlSequenceStart, Int32FalseTrue: []int32{0, 1}}}},
			},
		},
	}

	_, _, err := Validate(cfg, sig)
	assert.NoError(t, err)
}

func TestValidateSequenceControlWrongShape(t *testing.T) {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "in", InModelName: "in", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 4}})
	sig.AddInput(&IO{Name: "start", InModelName: "start", DataType: types.DataTypeInt32, Shape: tensor.Shape{-1, 2}})
	sig.AddOutput(&IO{Name: "out", InModelName: "out", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 4}})
	cfg := &config.ModelConfig{
		Name:         "seq",
		MaxBatchSize: 4,
		Input:        []config.TensorConfig{{Name: "in", DataType: "TYPE_FP32", Dims: []int64{4}}},
		Output:       []config.TensorConfig{{Name: "out", DataType: "TYPE_FP32", Dims: []int64{4}}},
		SequenceBatching: &config.SequenceBatching{
			ControlInput: []config.ControlInput{
				{Name: "start", Control: []config.Control{{Kind: config.ControlSequenceStart, Int32FalseTrue: []int32{0, 1}}}},
			},
		},
	}

	_, _, err := Validate(cfg, sig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sequence control 'start'")
}

func TestValidateSequenceControlMissingFromModel(t *testing.T) {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "in", InModelName: "in", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 4}})
	sig.AddOutput(&IO{Name: "out", InModelName: "out", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 4}})
	cfg := &config.ModelConfig{
		Name:         "seq",
		MaxBatchSize: 4,
		Input:        []config.TensorConfig{{Name: "in", DataType: "TYPE_FP32", Dims: []int64{4}}},
		Output:       []config.TensorConfig{{Name: "out", DataType: "TYPE_FP32", Dims: []int64{4}}},
		SequenceBatching: &config.SequenceBatching{
			ControlInput: []config.ControlInput{
				{Name: "ready", Control: []config.Control{{Kind: config.ControlSequenceReady, BoolFalseTrue: []bool{false, true}}}},
			},
		},
	}

	_, _, err := Validate(cfg, sig)
	assert.Error(t, err)
}
