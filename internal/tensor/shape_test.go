package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeToString(t *testing.T) {
	assert.Equal(t, "[1,2,3]", ShapeToString(Shape{1, 2, 3}, 0))
	assert.Equal(t, "[2,3]", ShapeToString(Shape{1, 2, 3}, 1))
	assert.Equal(t, "[]", ShapeToString(Shape{}, 0))
	assert.Equal(t, "[-1,4]", ShapeToString(Shape{-1, 4}, 0))
}

func TestElementCount(t *testing.T) {
	assert.Equal(t, int64(24), Shape{2, 3, 4}.ElementCount())
	assert.Equal(t, int64(1), Shape{}.ElementCount())
	assert.True(t, Shape{-1, 4}.ElementCount() < 0)
}

func TestCompareDimsBatching(t *testing.T) {
	tests := []struct {
		name       string
		modelShape Shape
		configDims []int64
		exact      bool
		wantErr    bool
	}{
		{"wildcard accepts configured size", Shape{-1, 4}, []int64{4}, false, false},
		{"fixed dim must match", Shape{-1, 4}, []int64{5}, false, true},
		{"model wildcard accepts any size non-exact", Shape{-1, -1}, []int64{7}, false, false},
		{"model wildcard rejected under exact", Shape{-1, -1}, []int64{7}, true, true},
		{"rank mismatch", Shape{-1, 4}, []int64{4, 2}, false, true},
		{"first dim must be wildcard", Shape{8, 4}, []int64{4}, false, true},
		{"rank zero model shape", Shape{}, []int64{4}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareDims("m", "t", tt.modelShape, tt.configDims, true, tt.exact)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompareDimsNonBatching(t *testing.T) {
	tests := []struct {
		name       string
		modelShape Shape
		configDims []int64
		exact      bool
		wantErr    bool
	}{
		{"exact match", Shape{2, 3}, []int64{2, 3}, true, false},
		{"wildcard accepted non-exact", Shape{-1, 3}, []int64{9, 3}, false, false},
		{"wildcard rejected exact", Shape{-1, 3}, []int64{9, 3}, true, true},
		{"rank mismatch", Shape{2, 3}, []int64{2}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareDims("m", "t", tt.modelShape, tt.configDims, false, tt.exact)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// A shape that validates against itself must keep validating: reconciliation
// must be idempotent.
func TestCompareDimsReflexive(t *testing.T) {
	shape := Shape{-1, 4, 8}
	assert.NoError(t, CompareDims("m", "t", shape, []int64{4, 8}, true, false))
	assert.NoError(t, CompareDims("m", "t", shape, []int64{4, 8}, true, false))
}

func TestCompareDimsErrorMentionsShapes(t *testing.T) {
	err := CompareDims("mnist", "logits", Shape{-1, 10}, []int64{12}, true, false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mnist")
	assert.Contains(t, err.Error(), "logits")
	assert.Contains(t, err.Error(), "[-1,10]")
	assert.Contains(t, err.Error(), "[-1,12]")
}
