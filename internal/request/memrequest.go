package request

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/memory"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

// Segment is one backing buffer of an in-memory input.
type Segment struct {
	Data     []byte
	MemType  memory.Type
	DeviceID int64
}

// MemInput is the in-memory Input used by embedders and tests.
type MemInput struct {
	name     string
	dataType types.DataType
	shape    tensor.Shape
	segments []Segment
}

func NewMemInput(name string, dataType types.DataType, shape tensor.Shape, segments ...Segment) *MemInput {
	return &MemInput{name: name, dataType: dataType, shape: shape.Clone(), segments: segments}
}

func (in *MemInput) Name() string             { return in.name }
func (in *MemInput) DataType() types.DataType { return in.dataType }
func (in *MemInput) Shape() tensor.Shape      { return in.shape }
func (in *MemInput) BufferCount() int         { return len(in.segments) }

func (in *MemInput) Buffer(idx int) ([]byte, memory.Type, int64, error) {
	if idx < 0 || idx >= len(in.segments) {
		return nil, memory.TypeCPU, 0, errors.Internalf(
			"buffer index %d out of range for input '%s' with %d buffers", idx, in.name, len(in.segments))
	}
	s := in.segments[idx]
	return s.Data, s.MemType, s.DeviceID, nil
}

// MemRequest is the in-memory Request. Response creation can be forced to
// fail to exercise per-request degradation.
type MemRequest struct {
	id               string
	inputs           *linkedhashmap.Map
	requestedOutputs []string

	FailResponseCreate bool

	response *MemResponse
	released bool
}

func NewMemRequest(id string, requestedOutputs []string, inputs ...*MemInput) *MemRequest {
	r := &MemRequest{
		id:               id,
		inputs:           linkedhashmap.New(),
		requestedOutputs: requestedOutputs,
	}
	for _, in := range inputs {
		r.inputs.Put(in.name, in)
	}
	return r
}

func (r *MemRequest) ID() string      { return r.id }
func (r *MemRequest) InputCount() int { return r.inputs.Size() }

func (r *MemRequest) InputByIndex(idx int) (Input, error) {
	if idx < 0 || idx >= r.inputs.Size() {
		return nil, errors.Internalf(
			"input index %d out of range for request '%s' with %d inputs", idx, r.id, r.inputs.Size())
	}
	it := r.inputs.Iterator()
	for i := 0; it.Next(); i++ {
		if i == idx {
			return it.Value().(*MemInput), nil
		}
	}
	return nil, errors.Internalf("input index %d not reachable for request '%s'", idx, r.id)
}

func (r *MemRequest) Input(name string) (Input, error) {
	if v, ok := r.inputs.Get(name); ok {
		return v.(*MemInput), nil
	}
	return nil, errors.NotFoundf("request '%s' has no input '%s'", r.id, name)
}

func (r *MemRequest) RequestedOutputs() []string { return r.requestedOutputs }

func (r *MemRequest) CreateResponse() (Response, error) {
	if r.FailResponseCreate {
		return nil, errors.Internalf("failed to create response for request '%s'", r.id)
	}
	r.response = &MemResponse{outputs: linkedhashmap.New()}
	return r.response, nil
}

func (r *MemRequest) Release() { r.released = true }

// Released reports whether the pipeline gave the request back.
func (r *MemRequest) Released() bool { return r.released }

// Response returns the response created for this request, nil before
// CreateResponse or when creation was forced to fail.
func (r *MemRequest) Response() *MemResponse { return r.response }

// MemResponse records outputs and the final Send outcome.
type MemResponse struct {
	outputs *linkedhashmap.Map
	sent    bool
	sendErr error
}

func (r *MemResponse) AddOutput(name string, dataType types.DataType, shape tensor.Shape) (Output, error) {
	if r.sent {
		return nil, errors.Internalf("response already sent, cannot add output '%s'", name)
	}
	out := &MemOutput{name: name, dataType: dataType, shape: shape.Clone()}
	r.outputs.Put(name, out)
	return out, nil
}

func (r *MemResponse) Send(err error) error {
	if r.sent {
		return errors.Internalf("response sent more than once")
	}
	r.sent = true
	r.sendErr = err
	return nil
}

func (r *MemResponse) Sent() bool     { return r.sent }
func (r *MemResponse) SendErr() error { return r.sendErr }

// Output returns the named output added so far, nil when absent.
func (r *MemResponse) Output(name string) *MemOutput {
	if v, ok := r.outputs.Get(name); ok {
		return v.(*MemOutput)
	}
	return nil
}

func (r *MemResponse) OutputNames() []string {
	names := make([]string, 0, r.outputs.Size())
	it := r.outputs.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}

// MemOutput allocates host memory regardless of the preferred placement.
type MemOutput struct {
	name     string
	dataType types.DataType
	shape    tensor.Shape
	data     []byte
}

func (o *MemOutput) Buffer(byteSize int, _ memory.Type, _ int64) ([]byte, memory.Type, int64, error) {
	if byteSize < 0 {
		return nil, memory.TypeCPU, 0, errors.Internalf(
			"negative buffer size %d for output '%s'", byteSize, o.name)
	}
	o.data = make([]byte, byteSize)
	return o.data, memory.TypeCPU, 0, nil
}

func (o *MemOutput) Name() string             { return o.name }
func (o *MemOutput) DataType() types.DataType { return o.dataType }
func (o *MemOutput) Shape() tensor.Shape      { return o.shape }
func (o *MemOutput) Data() []byte             { return o.data }
