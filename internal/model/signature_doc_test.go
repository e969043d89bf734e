package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

func TestParseSignature(t *testing.T) {
	doc := `{
	  "inputs": [
	    {"name": "image", "in_model_name": "serving_image:0", "data_type": "TYPE_FP32", "shape": [-1, 784]},
	    {"name": "mask", "data_type": "TYPE_BOOL", "shape": [-1, 1]}
	  ],
	  "outputs": [
	    {"name": "logits", "data_type": "TYPE_FP32", "shape": [-1, 10]}
	  ]
	}`

	sig, err := ParseSignature([]byte(doc))
	assert.NoError(t, err)
	assert.Equal(t, 2, sig.InputCount())
	assert.Equal(t, 1, sig.OutputCount())

	image := sig.Input("image")
	assert.NotNil(t, image)
	assert.Equal(t, "serving_image:0", image.InModelName)
	assert.Equal(t, types.DataTypeFP32, image.DataType)
	assert.Equal(t, tensor.Shape{-1, 784}, image.Shape)

	// in_model_name defaults to the declared name.
	assert.Equal(t, "mask", sig.Input("mask").InModelName)

	// Declaration order is preserved.
	inputs := sig.Inputs()
	assert.Equal(t, "image", inputs[0].Name)
	assert.Equal(t, "mask", inputs[1].Name)

	assert.True(t, sig.SupportsBatching())
}

func TestParseSignatureBadType(t *testing.T) {
	_, err := ParseSignature([]byte(`{"inputs": [{"name": "x", "data_type": "TYPE_WAT", "shape": [1]}]}`))
	assert.Error(t, err)
}

func TestSignatureSupportsBatching(t *testing.T) {
	sig := NewSignature()
	sig.AddInput(&IO{Name: "a", DataType: types.DataTypeFP32, Shape: tensor.Shape{-1, 2}})
	sig.AddOutput(&IO{Name: "b", DataType: types.DataTypeFP32, Shape: tensor.Shape{2}})
	// One non-wildcard leading dim disqualifies the whole signature.
	assert.False(t, sig.SupportsBatching())
}
