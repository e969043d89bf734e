package tensor

import (
	"strconv"
	"strings"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

// WildcardDim marks a dimension whose size is unconstrained. The batch
// dimension of a batching model and genuinely variable axes use it.
const WildcardDim int64 = -1

// Shape is an ordered sequence of dimensions. Rank zero means the model did
// not report a shape for the tensor.
type Shape []int64

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// ElementCount returns the product of all dimensions. It is only meaningful
// for concrete shapes; a wildcard dimension poisons the count negative.
func (s Shape) ElementCount() int64 {
	cnt := int64(1)
	for _, d := range s {
		cnt *= d
	}
	return cnt
}

// Clone returns an independent copy of s.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// ShapeToString renders a shape as "[d0,d1,...]". startIdx skips leading
// dimensions, used to drop the batch dimension from messages.
func ShapeToString(s Shape, startIdx int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := startIdx; i < len(s); i++ {
		if i > startIdx {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(s[i], 10))
	}
	b.WriteByte(']')
	return b.String()
}

// CompareDims checks that a model-reported shape can support a
// configuration-declared dims list. When supportsBatching is set the
// configuration dims never include the batch dimension, so a wildcard is
// prepended before comparing and the model shape's first dimension must be
// the wildcard. Under compareExact every dimension must match the model's;
// otherwise a model wildcard accepts any configured size.
func CompareDims(modelName, tensorName string, modelShape Shape, configDims []int64, supportsBatching, compareExact bool) error {
	if supportsBatching {
		if modelShape.Rank() == 0 || modelShape[0] != WildcardDim {
			return errors.InvalidArgumentf(
				"model '%s', tensor '%s': for the model to support batching the shape should have at "+
					"least 1 dimension and the first dimension must be -1; but shape expected by the model is %s",
				modelName, tensorName, ShapeToString(modelShape, 0))
		}

		fullDims := make([]int64, 0, len(configDims)+1)
		fullDims = append(fullDims, WildcardDim)
		fullDims = append(fullDims, configDims...)

		succ := modelShape.Rank() == len(fullDims)
		if succ {
			for i := range fullDims {
				modelDim := modelShape[i]
				if compareExact || modelDim != WildcardDim {
					succ = succ && (modelDim == fullDims[i])
				}
			}
		}

		if !succ {
			return errors.InvalidArgumentf(
				"model '%s', tensor '%s': the model expects %d dimensions (shape %s) but the model "+
					"configuration specifies %d dimensions (an initial batch dimension because max_batch_size > 0 "+
					"followed by the explicit tensor shape, making complete shape %s)",
				modelName, tensorName, modelShape.Rank(), ShapeToString(modelShape, 0),
				len(fullDims), ShapeToString(fullDims, 0))
		}
		return nil
	}

	succ := modelShape.Rank() == len(configDims)
	if succ {
		for i := range configDims {
			modelDim := modelShape[i]
			if compareExact || modelDim != WildcardDim {
				succ = succ && (modelDim == configDims[i])
			}
		}
	}

	if !succ {
		return errors.InvalidArgumentf(
			"model '%s', tensor '%s': the model expects %d dimensions (shape %s) but the model "+
				"configuration specifies %d dimensions (shape %s)",
			modelName, tensorName, modelShape.Rank(), ShapeToString(modelShape, 0),
			len(configDims), ShapeToString(Shape(configDims), 0))
	}
	return nil
}
