package model

import (
	"github.com/goccy/go-json"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

type signatureDoc struct {
	Inputs  []ioDoc `json:"inputs"`
	Outputs []ioDoc `json:"outputs"`
}

type ioDoc struct {
	Name        string  `json:"name"`
	InModelName string  `json:"in_model_name,omitempty"`
	DataType    string  `json:"data_type"`
	Shape       []int64 `json:"shape"`
}

// ParseSignature decodes a model signature document as exported by the
// loader tooling. Tensor order in the document is the model's declaration
// order and is preserved.
func ParseSignature(doc []byte) (*Signature, error) {
	var sd signatureDoc
	if err := json.Unmarshal(doc, &sd); err != nil {
		return nil, errors.InvalidArgumentf("failed to parse model signature: %v", err)
	}

	sig := NewSignature()
	for _, d := range sd.Inputs {
		io, err := ioFromDoc(d)
		if err != nil {
			return nil, err
		}
		sig.AddInput(io)
	}
	for _, d := range sd.Outputs {
		io, err := ioFromDoc(d)
		if err != nil {
			return nil, err
		}
		sig.AddOutput(io)
	}
	return sig, nil
}

func ioFromDoc(d ioDoc) (*IO, error) {
	dt := types.FromConfigString(d.DataType)
	if dt == types.DataTypeInvalid {
		return nil, errors.InvalidArgumentf(
			"unsupported datatype '%s' for signature tensor '%s'", d.DataType, d.Name)
	}
	inModel := d.InModelName
	if inModel == "" {
		inModel = d.Name
	}
	return &IO{
		Name:        d.Name,
		InModelName: inModel,
		DataType:    dt,
		Shape:       d.Shape,
	}, nil
}
