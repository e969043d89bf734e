package batch

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/config"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

// BatchInputShape computes the shape of a batch input tensor from the
// per-request element counts of its source input.
func (c *Collector) BatchInputShape(bi *config.BatchInput) (tensor.Shape, error) {
	counts, err := c.sourceElementCounts(bi)
	if err != nil {
		return nil, err
	}

	switch bi.Kind {
	case config.BatchInputElementCount, config.BatchInputAccumulatedElementCount:
		return tensor.Shape{int64(len(counts))}, nil
	case config.BatchInputAccumulatedElementCountZero:
		return tensor.Shape{int64(len(counts)) + 1}, nil
	case config.BatchInputMaxElementCountAsShape:
		max := int64(0)
		for _, cnt := range counts {
			if cnt > max {
				max = cnt
			}
		}
		return tensor.Shape{max}, nil
	default:
		return nil, errors.InvalidArgumentf("unsupported batch input kind '%s'", bi.Kind)
	}
}

// ProcessBatchInput writes the derived per-request values into dst. The
// max-element-count kind conveys its value through the tensor shape alone
// and writes nothing.
func (c *Collector) ProcessBatchInput(bi *config.BatchInput, dst *tensor.Tensor) error {
	if bi.Kind == config.BatchInputMaxElementCountAsShape {
		return nil
	}

	counts, err := c.sourceElementCounts(bi)
	if err != nil {
		return err
	}

	var values []int64
	switch bi.Kind {
	case config.BatchInputElementCount:
		values = counts
	case config.BatchInputAccumulatedElementCount:
		values = accumulate(counts, false)
	case config.BatchInputAccumulatedElementCountZero:
		values = accumulate(counts, true)
	default:
		return errors.InvalidArgumentf("unsupported batch input kind '%s'", bi.Kind)
	}

	for i, v := range values {
		if err := writeScalar(dst, int64(i), v); err != nil {
			return err
		}
	}
	return nil
}

// sourceElementCounts resolves the element count of the batch input's source
// input in every request. All requests carry the source input; a request
// that does not is a scheduling error that fails the whole batch input.
func (c *Collector) sourceElementCounts(bi *config.BatchInput) ([]int64, error) {
	if len(bi.SourceInput) == 0 {
		return nil, errors.InvalidArgumentf(
			"batch input kind '%s' specifies no source input", bi.Kind)
	}
	srcName := bi.SourceInput[0]

	counts := make([]int64, 0, len(c.requests))
	for _, req := range c.requests {
		in, err := req.Input(srcName)
		if err != nil {
			return nil, err
		}
		counts = append(counts, in.Shape().ElementCount())
	}
	return counts, nil
}

func accumulate(counts []int64, leadingZero bool) []int64 {
	out := make([]int64, 0, len(counts)+1)
	if leadingZero {
		out = append(out, 0)
	}
	sum := int64(0)
	for _, cnt := range counts {
		sum += cnt
		out = append(out, sum)
	}
	return out
}

func writeScalar(dst *tensor.Tensor, idx, v int64) error {
	buf := dst.Data()
	switch dst.DataType() {
	case types.DataTypeInt32:
		binary.LittleEndian.PutUint32(buf[idx*4:], uint32(v))
	case types.DataTypeInt64:
		binary.LittleEndian.PutUint64(buf[idx*8:], uint64(v))
	case types.DataTypeFP32:
		binary.LittleEndian.PutUint32(buf[idx*4:], math.Float32bits(float32(v)))
	case types.DataTypeFP16:
		binary.LittleEndian.PutUint16(buf[idx*2:], float16.Fromfloat32(float32(v)).Bits())
	default:
		return errors.InvalidArgumentf(
			"batch input data type %s is not supported", dst.DataType())
	}
	return nil
}
