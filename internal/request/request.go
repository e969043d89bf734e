package request

import (
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/memory"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

// Input is one request tensor as the host runtime holds it: a declared name,
// type and shape over one or more discontiguous buffers.
type Input interface {
	Name() string
	DataType() types.DataType
	Shape() tensor.Shape
	BufferCount() int
	// Buffer returns the idx-th backing buffer and where it lives.
	Buffer(idx int) (data []byte, memType memory.Type, deviceID int64, err error)
}

// Request is one inference request handed to the batch pipeline. The
// pipeline owns it from entry until Release, which must be called exactly
// once per request on every path, including failure paths.
type Request interface {
	ID() string
	InputCount() int
	InputByIndex(idx int) (Input, error)
	Input(name string) (Input, error)
	RequestedOutputs() []string
	// CreateResponse builds the response this request will be answered on.
	// Failure here degrades the request, never the batch.
	CreateResponse() (Response, error)
	Release()
}

// Response collects the outputs for one request and sends them back. Send
// completes the response exactly once; with a non-nil error the response is
// an error response and any added outputs are discarded by the runtime.
type Response interface {
	AddOutput(name string, dataType types.DataType, shape tensor.Shape) (Output, error)
	Send(err error) error
}

// Output is one response tensor awaiting its data.
type Output interface {
	// Buffer allocates the output's backing buffer. The runtime may place it
	// elsewhere than preferred; the returned location is authoritative.
	Buffer(byteSize int, preferredType memory.Type, preferredID int64) (data []byte, memType memory.Type, deviceID int64, err error)
}
