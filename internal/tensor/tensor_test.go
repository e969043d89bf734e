package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/memory"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

func TestNewFixedSize(t *testing.T) {
	tensor, err := New("in", types.DataTypeFP32, Shape{2, 3}, -1)
	assert.NoError(t, err)
	assert.Equal(t, 24, tensor.ByteSize())
	assert.Equal(t, int64(6), tensor.ElementCount())
	assert.Equal(t, memory.TypeCPU, tensor.MemoryType())
}

func TestNewOnDevice(t *testing.T) {
	tensor, err := New("in", types.DataTypeInt32, Shape{4}, 1)
	assert.NoError(t, err)
	assert.Equal(t, memory.TypeGPU, tensor.MemoryType())
	assert.Equal(t, int64(1), tensor.DeviceID())
}

func TestNewStringStaysOnHost(t *testing.T) {
	tensor, err := New("words", types.DataTypeString, Shape{3}, 1)
	assert.NoError(t, err)
	assert.Equal(t, memory.TypeCPU, tensor.MemoryType())
	assert.Equal(t, int64(3), tensor.ElementCount())
	assert.Nil(t, tensor.Data())
}

func TestNewNonConcreteShape(t *testing.T) {
	_, err := New("in", types.DataTypeFP32, Shape{-1, 4}, -1)
	assert.Error(t, err)
}

func TestSetStringBounds(t *testing.T) {
	tensor, err := New("words", types.DataTypeString, Shape{2}, -1)
	assert.NoError(t, err)

	assert.NoError(t, tensor.SetString(0, []byte("ok")))
	assert.Error(t, tensor.SetString(2, []byte("out")))
	assert.Error(t, tensor.SetString(-1, []byte("out")))

	// nil stays addressable as an empty placeholder.
	assert.NoError(t, tensor.SetString(1, nil))
	got, err := tensor.StringAt(1)
	assert.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}
