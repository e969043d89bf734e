package model

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

// IO is one model-reported input or output. Shape is mutable only during
// reconciliation, to backfill a shape the model did not declare from the
// configuration; afterwards the signature is shared read-only by every
// concurrent inference call.
type IO struct {
	Name        string
	InModelName string
	DataType    types.DataType
	Shape       tensor.Shape
}

// Signature is the interface the loaded model actually reports: its inputs
// and outputs in declaration order.
type Signature struct {
	inputs  *linkedhashmap.Map
	outputs *linkedhashmap.Map
}

func NewSignature() *Signature {
	return &Signature{
		inputs:  linkedhashmap.New(),
		outputs: linkedhashmap.New(),
	}
}

func (s *Signature) AddInput(io *IO) *Signature {
	s.inputs.Put(io.Name, io)
	return s
}

func (s *Signature) AddOutput(io *IO) *Signature {
	s.outputs.Put(io.Name, io)
	return s
}

// Input returns the named model input, or nil when the model has none.
func (s *Signature) Input(name string) *IO {
	if v, ok := s.inputs.Get(name); ok {
		return v.(*IO)
	}
	return nil
}

// Output returns the named model output, or nil when the model has none.
func (s *Signature) Output(name string) *IO {
	if v, ok := s.outputs.Get(name); ok {
		return v.(*IO)
	}
	return nil
}

// Inputs returns the model inputs in declaration order.
func (s *Signature) Inputs() []*IO {
	return iosOf(s.inputs)
}

// Outputs returns the model outputs in declaration order.
func (s *Signature) Outputs() []*IO {
	return iosOf(s.outputs)
}

func (s *Signature) InputCount() int  { return s.inputs.Size() }
func (s *Signature) OutputCount() int { return s.outputs.Size() }

func iosOf(m *linkedhashmap.Map) []*IO {
	out := make([]*IO, 0, m.Size())
	it := m.Iterator()
	for it.Next() {
		out = append(out, it.Value().(*IO))
	}
	return out
}

// SupportsBatching reports whether every input and output declares a
// wildcard leading dimension, the signature-level hint that the model can
// take a batch.
func (s *Signature) SupportsBatching() bool {
	for _, ios := range [][]*IO{s.Inputs(), s.Outputs()} {
		for _, io := range ios {
			if io.Shape.Rank() == 0 || io.Shape[0] != tensor.WildcardDim {
				return false
			}
		}
	}
	return true
}
