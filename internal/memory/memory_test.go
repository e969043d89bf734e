package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyBufferHostToHost(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	dst := make([]byte, 4)
	stream := NewStream()

	async, err := CopyBuffer("test", TypeCPU, 0, TypeCPU, 0, 4, src, dst, stream)
	assert.NoError(t, err)
	assert.False(t, async)
	assert.Equal(t, src, dst)
	assert.Equal(t, 0, stream.PendingCount())
}

func TestCopyBufferDeviceIsDeferred(t *testing.T) {
	src := []byte{9, 8, 7}
	dst := make([]byte, 3)
	stream := NewStream()

	async, err := CopyBuffer("test", TypeGPU, 0, TypeCPU, 0, 3, src, dst, stream)
	assert.NoError(t, err)
	assert.True(t, async)
	assert.Equal(t, []byte{0, 0, 0}, dst)
	assert.Equal(t, 1, stream.PendingCount())

	stream.Synchronize()
	assert.Equal(t, src, dst)
	assert.Equal(t, 0, stream.PendingCount())
}

func TestCopyBufferSizeChecks(t *testing.T) {
	stream := NewStream()

	_, err := CopyBuffer("test", TypeCPU, 0, TypeCPU, 0, 8, []byte{1}, make([]byte, 8), stream)
	assert.Error(t, err)

	_, err = CopyBuffer("test", TypeCPU, 0, TypeCPU, 0, 8, make([]byte, 8), []byte{1}, stream)
	assert.Error(t, err)
}

func TestSynchronizePreservesIssueOrder(t *testing.T) {
	dst := make([]byte, 1)
	stream := NewStream()

	_, err := CopyBuffer("first", TypeGPU, 0, TypeCPU, 0, 1, []byte{1}, dst, stream)
	assert.NoError(t, err)
	_, err = CopyBuffer("second", TypeGPU, 0, TypeCPU, 0, 1, []byte{2}, dst, stream)
	assert.NoError(t, err)

	stream.Synchronize()
	assert.Equal(t, byte(2), dst[0])
}
