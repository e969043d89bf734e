package batch

import (
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/config"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/memory"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/request"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
)

// Responder splits batch output tensors back into per-request responses.
// Each request's share of the batch dimension mirrors the batch dimension of
// its first input, so failed or not-interested requests still advance the
// read offset.
type Responder struct {
	requests         []request.Request
	slots            *Slots
	required         []map[string]bool
	supportsBatching bool
	stream           *memory.Stream
	pendingCopy      bool
}

// NewResponder builds a responder. required holds, per request, the set of
// output names that request asked for; outputs it did not ask for are
// skipped for it but still consumed from the batch tensor.
func NewResponder(requests []request.Request, slots *Slots, required []map[string]bool,
	supportsBatching bool, stream *memory.Stream) *Responder {
	return &Responder{
		requests:         requests,
		slots:            slots,
		required:         required,
		supportsBatching: supportsBatching,
		stream:           stream,
	}
}

// ProcessTensor scatters one fixed-size output tensor across the requests.
func (r *Responder) ProcessTensor(name string, src *tensor.Tensor) {
	elemSize := src.DataType().Size()
	perShape := src.Shape().Clone()
	offset := int64(0)

	for i, req := range r.requests {
		cnt, ok := r.requestShare(i, req, perShape)
		if !ok {
			continue
		}

		if r.slots.Alive(i) && r.required[i][name] {
			r.copyOutput(i, name, src, perShape, offset*int64(elemSize), cnt*int64(elemSize))
		}
		offset += cnt
	}
}

// ProcessStringTensor scatters one variable-length output tensor, serializing
// each request's elements back to the length-prefixed wire form.
func (r *Responder) ProcessStringTensor(name string, src *tensor.Tensor) {
	perShape := src.Shape().Clone()
	offset := int64(0)

	for i, req := range r.requests {
		cnt, ok := r.requestShare(i, req, perShape)
		if !ok {
			continue
		}

		if r.slots.Alive(i) && r.required[i][name] {
			serialized, err := tensor.SerializeStrings(src, offset, cnt)
			if err != nil {
				r.slots.Fail(i, err)
			} else {
				r.sendOutput(i, name, src, perShape, serialized)
			}
		}
		offset += cnt
	}
}

// ProcessBatchOutput scatters an output according to each request's source
// input shape instead of the batch dimension.
func (r *Responder) ProcessBatchOutput(name string, bo *config.BatchOutput, src *tensor.Tensor) error {
	if bo.Kind != config.BatchOutputScatterWithInputShape {
		return errors.InvalidArgumentf("unsupported batch output kind '%s'", bo.Kind)
	}
	if len(bo.SourceInput) == 0 {
		return errors.InvalidArgumentf(
			"batch output kind '%s' specifies no source input", bo.Kind)
	}
	srcName := bo.SourceInput[0]
	elemSize := src.DataType().Size()
	offset := int64(0)

	for i, req := range r.requests {
		in, err := req.Input(srcName)
		if err != nil {
			r.slots.Fail(i, err)
			continue
		}
		perShape := in.Shape().Clone()
		cnt := perShape.ElementCount()

		if r.slots.Alive(i) && r.required[i][name] {
			r.copyOutput(i, name, src, perShape, offset*int64(elemSize), cnt*int64(elemSize))
		}
		offset += cnt
	}
	return nil
}

// Finalize reports whether any issued copy is still in flight on the stream.
func (r *Responder) Finalize() bool {
	return r.pendingCopy
}

// requestShare sets the per-request batch dimension in perShape and returns
// the request's element count. When batching is off the whole tensor belongs
// to the single request.
func (r *Responder) requestShare(i int, req request.Request, perShape tensor.Shape) (int64, bool) {
	if r.supportsBatching {
		in, err := req.InputByIndex(0)
		if err != nil {
			r.slots.Fail(i, err)
			return 0, false
		}
		perShape[0] = in.Shape()[0]
	}
	return perShape.ElementCount(), true
}

func (r *Responder) copyOutput(i int, name string, src *tensor.Tensor,
	shape tensor.Shape, byteOffset, byteSize int64) {

	out, err := r.slots.Response(i).AddOutput(name, src.DataType(), shape)
	if err != nil {
		r.slots.Fail(i, err)
		return
	}
	buf, memType, deviceID, err := out.Buffer(int(byteSize), src.MemoryType(), src.DeviceID())
	if err != nil {
		r.slots.Fail(i, err)
		return
	}
	async, err := memory.CopyBuffer(
		"output '"+name+"'", src.MemoryType(), src.DeviceID(), memType, deviceID,
		int(byteSize), src.Data()[byteOffset:], buf, r.stream)
	if err != nil {
		r.slots.Fail(i, err)
		return
	}
	r.pendingCopy = r.pendingCopy || async
}

func (r *Responder) sendOutput(i int, name string, src *tensor.Tensor,
	shape tensor.Shape, serialized []byte) {

	out, err := r.slots.Response(i).AddOutput(name, src.DataType(), shape)
	if err != nil {
		r.slots.Fail(i, err)
		return
	}
	buf, memType, deviceID, err := out.Buffer(len(serialized), memory.TypeCPU, 0)
	if err != nil {
		r.slots.Fail(i, err)
		return
	}
	async, err := memory.CopyBuffer(
		"String output", memory.TypeCPU, 0, memType, deviceID,
		len(serialized), serialized, buf, r.stream)
	if err != nil {
		r.slots.Fail(i, err)
		return
	}
	r.pendingCopy = r.pendingCopy || async
}
