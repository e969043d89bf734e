package memory

import (
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

// Type tags where a buffer lives. The adapter never touches an accelerator
// runtime directly; it only needs to know whether a copy crosses the host
// boundary so the copy can be issued on the stream and joined later.
type Type int

const (
	TypeCPU Type = iota
	TypeGPU
)

func (t Type) String() string {
	if t == TypeGPU {
		return "GPU"
	}
	return "CPU"
}

// CopyBuffer copies byteSize bytes from src to dst. Copies that involve
// accelerator memory are enqueued on the stream and reported as asynchronous;
// the caller must synchronize the stream before reading dst. Host-to-host
// copies complete before returning.
func CopyBuffer(what string, srcType Type, srcID int64, dstType Type, dstID int64,
	byteSize int, src, dst []byte, stream *Stream) (bool, error) {
	if len(src) < byteSize {
		return false, errors.Internalf(
			"%s: source buffer too small, expecting %d bytes, got %d", what, byteSize, len(src))
	}
	if len(dst) < byteSize {
		return false, errors.Internalf(
			"%s: destination buffer too small, expecting %d bytes, got %d", what, byteSize, len(dst))
	}

	deviceInvolved := srcType == TypeGPU || dstType == TypeGPU
	if deviceInvolved && stream != nil {
		stream.enqueue(src[:byteSize], dst[:byteSize])
		return true, nil
	}

	copy(dst[:byteSize], src[:byteSize])
	return false, nil
}
