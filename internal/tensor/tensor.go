package tensor

import (
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/memory"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

// Tensor is one named, typed buffer exchanged with the execution runner.
// Fixed-size element types use a contiguous byte buffer; string tensors keep
// their elements as an indexed slice, mirroring how the computation runtime
// stores variable-length data.
type Tensor struct {
	name     string
	dataType types.DataType
	shape    Shape
	memType  memory.Type
	deviceID int64

	buf  []byte
	strs [][]byte
}

// New allocates a tensor sized for shape. String tensors get one element
// slot per shape element; every other type gets ElementCount*Size bytes.
// deviceID below zero places the tensor in host memory.
func New(name string, dataType types.DataType, shape Shape, deviceID int64) (*Tensor, error) {
	t := &Tensor{
		name:     name,
		dataType: dataType,
		shape:    shape.Clone(),
		memType:  memory.TypeCPU,
		deviceID: 0,
	}
	if deviceID >= 0 {
		t.memType = memory.TypeGPU
		t.deviceID = deviceID
	}

	cnt := shape.ElementCount()
	if cnt < 0 {
		return nil, errors.Internalf(
			"failed to create tensor '%s': shape %s is not concrete", name, ShapeToString(shape, 0))
	}

	if dataType == types.DataTypeString {
		// String data always lives on the host regardless of the device hint.
		t.memType = memory.TypeCPU
		t.deviceID = 0
		t.strs = make([][]byte, cnt)
		return t, nil
	}

	elemSize := dataType.Size()
	if elemSize == 0 {
		return nil, errors.Internalf(
			"failed to create tensor '%s': unsupported data type %s", name, dataType)
	}
	t.buf = make([]byte, cnt*int64(elemSize))
	return t, nil
}

func (t *Tensor) Name() string             { return t.name }
func (t *Tensor) DataType() types.DataType { return t.dataType }
func (t *Tensor) Shape() Shape             { return t.shape }
func (t *Tensor) MemoryType() memory.Type  { return t.memType }
func (t *Tensor) DeviceID() int64          { return t.deviceID }

// Data returns the contiguous buffer of a fixed-size tensor. Nil for string
// tensors.
func (t *Tensor) Data() []byte {
	return t.buf
}

// ByteSize returns the size of the contiguous buffer, 0 for string tensors.
func (t *Tensor) ByteSize() int {
	return len(t.buf)
}

// ElementCount returns the number of logical elements.
func (t *Tensor) ElementCount() int64 {
	if t.dataType == types.DataTypeString {
		return int64(len(t.strs))
	}
	return t.shape.ElementCount()
}

// SetString stores one string element. An out-of-range index is an internal
// error; the batch assembler sizes the tensor before populating it.
func (t *Tensor) SetString(idx int64, val []byte) error {
	if t.dataType != types.DataTypeString {
		return errors.Internalf("tensor '%s' is not a string tensor", t.name)
	}
	if idx < 0 || idx >= int64(len(t.strs)) {
		return errors.Internalf(
			"string element index %d out of range for tensor '%s' with %d elements",
			idx, t.name, len(t.strs))
	}
	// nil means "empty placeholder", keep the slot addressable either way.
	if val == nil {
		t.strs[idx] = []byte{}
		return nil
	}
	t.strs[idx] = val
	return nil
}

// StringAt returns one string element.
func (t *Tensor) StringAt(idx int64) ([]byte, error) {
	if t.dataType != types.DataTypeString {
		return nil, errors.Internalf("tensor '%s' is not a string tensor", t.name)
	}
	if idx < 0 || idx >= int64(len(t.strs)) {
		return nil, errors.Internalf(
			"string element index %d out of range for tensor '%s' with %d elements",
			idx, t.name, len(t.strs))
	}
	return t.strs[idx], nil
}
