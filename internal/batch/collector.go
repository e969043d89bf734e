package batch

import (
	"encoding/binary"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/memory"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/request"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
)

// Collector concatenates per-request input data into the contiguous batch
// tensors handed to the runner. Failed requests keep their byte ranges so
// offsets for the remaining requests are unaffected.
type Collector struct {
	requests    []request.Request
	slots       *Slots
	stream      *memory.Stream
	pendingCopy bool
}

func NewCollector(requests []request.Request, slots *Slots, stream *memory.Stream) *Collector {
	return &Collector{requests: requests, slots: slots, stream: stream}
}

// ProcessTensor copies the named fixed-size input of every request into dst
// at increasing offsets. Per-request errors degrade only that request's slot.
func (c *Collector) ProcessTensor(name string, dst *tensor.Tensor) {
	elemSize := dst.DataType().Size()
	offset := 0

	for i, req := range c.requests {
		in, err := req.Input(name)
		if err != nil {
			c.slots.Fail(i, err)
			continue
		}
		expected := int(in.Shape().ElementCount()) * elemSize

		copied := 0
		for b := 0; b < in.BufferCount(); b++ {
			data, memType, deviceID, err := in.Buffer(b)
			if err != nil {
				c.slots.Fail(i, err)
				break
			}
			async, err := memory.CopyBuffer(
				"input '"+name+"'", memType, deviceID, dst.MemoryType(), dst.DeviceID(),
				len(data), data, dst.Data()[offset+copied:], c.stream)
			if err != nil {
				c.slots.Fail(i, err)
				break
			}
			c.pendingCopy = c.pendingCopy || async
			copied += len(data)
		}

		if copied != expected && c.slots.Alive(i) {
			c.slots.Fail(i, errors.InvalidArgumentf(
				"unexpected total byte size %d for input '%s', expecting %d", copied, name, expected))
		}
		offset += expected
	}
}

// ProcessStringTensor decodes the named variable-length input of every
// request into dst. A malformed request gets its remaining elements
// backfilled with empty placeholders so later requests keep their offsets.
func (c *Collector) ProcessStringTensor(name string, dst *tensor.Tensor) {
	offset := int64(0)

	for i, req := range c.requests {
		in, err := req.Input(name)
		if err != nil {
			c.slots.Fail(i, err)
			continue
		}
		cnt := in.Shape().ElementCount()

		content, err := c.contiguousInputContent(in)
		if err != nil {
			c.slots.Fail(i, err)
			c.fillStringTensor(dst, offset, cnt)
			offset += cnt
			continue
		}

		c.setStringInputTensor(dst, i, name, content, cnt, offset)
		offset += cnt
	}
}

// contiguousInputContent returns the input's content as one host-memory
// chunk, collapsing multiple buffers and draining any device copies before
// the bytes are read.
func (c *Collector) contiguousInputContent(in request.Input) ([]byte, error) {
	chunkCount := 0
	deviceInvolved := false
	totalByteSize := 0
	for b := 0; b < in.BufferCount(); b++ {
		data, memType, _, err := in.Buffer(b)
		if err != nil {
			return nil, err
		}
		if data != nil {
			chunkCount++
			totalByteSize += len(data)
			deviceInvolved = deviceInvolved || memType == memory.TypeGPU
		}
	}

	if chunkCount == 0 {
		return nil, nil
	}
	if chunkCount == 1 && !deviceInvolved {
		data, _, _, err := in.Buffer(0)
		return data, err
	}

	contiguous := make([]byte, totalByteSize)
	needSync := false
	offset := 0
	for b := 0; b < in.BufferCount(); b++ {
		data, memType, deviceID, err := in.Buffer(b)
		if err != nil {
			return nil, err
		}
		async, err := memory.CopyBuffer(
			"Contiguous input", memType, deviceID, memory.TypeCPU, 0,
			len(data), data, contiguous[offset:], c.stream)
		if err != nil {
			return nil, err
		}
		needSync = needSync || async
		offset += len(data)
	}
	// String bytes are parsed on the host right away, so the collapse copies
	// cannot stay in flight.
	if needSync {
		c.stream.Synchronize()
	}
	return contiguous, nil
}

// setStringInputTensor parses one request's length-prefixed content into dst
// starting at tensorOffset. Every failure degrades only that request and
// backfills its remaining elements.
func (c *Collector) setStringInputTensor(dst *tensor.Tensor, slot int, name string,
	content []byte, requestElementCnt, tensorOffset int64) {

	elementIdx := int64(0)
	for len(content) >= 4 {
		if elementIdx >= requestElementCnt {
			c.slots.Fail(slot, errors.InvalidArgumentf(
				"unexpected number of string elements %d for inference input '%s', expecting %d",
				elementIdx+1, name, requestElementCnt))
			c.fillStringTensor(dst, tensorOffset+elementIdx, requestElementCnt-elementIdx)
			return
		}

		l := binary.LittleEndian.Uint32(content)
		content = content[4:]

		if uint32(len(content)) < l {
			c.slots.Fail(slot, errors.InvalidArgumentf(
				"incomplete string data for inference input '%s', expecting string of length %d "+
					"but only %d bytes available", name, l, len(content)))
			c.fillStringTensor(dst, tensorOffset+elementIdx, requestElementCnt-elementIdx)
			return
		}

		elem := make([]byte, l)
		copy(elem, content[:l])
		if err := dst.SetString(tensorOffset+elementIdx, elem); err != nil {
			c.slots.Fail(slot, err)
			return
		}
		content = content[l:]
		elementIdx++
	}

	if c.slots.Alive(slot) && elementIdx != requestElementCnt {
		c.slots.Fail(slot, errors.Internalf(
			"expected %d strings for inference input '%s', got %d",
			requestElementCnt, name, elementIdx))
		c.fillStringTensor(dst, tensorOffset+elementIdx, requestElementCnt-elementIdx)
	}
}

func (c *Collector) fillStringTensor(dst *tensor.Tensor, idx, cnt int64) {
	for e := int64(0); e < cnt; e++ {
		// Out of range here means the batch tensor was mis-sized, which is a
		// programming error; the placeholder loop just stops.
		if err := dst.SetString(idx+e, nil); err != nil {
			return
		}
	}
}

// Finalize reports whether any issued copy is still in flight on the stream.
func (c *Collector) Finalize() bool {
	return c.pendingCopy
}
