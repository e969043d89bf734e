package model

import (
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
)

// Runner executes the batched computation. It is an opaque external
// collaborator: named batch input tensors in, named batch output tensors
// (one per requested name, same order) or an error out. Nothing here is
// retried; a run failure fails the whole in-flight batch.
type Runner interface {
	Run(inputs []*tensor.Tensor, outputNames []string) ([]*tensor.Tensor, error)
}

// Handle is one loaded model: the signature it reported, the runner that
// executes it, and the name maps built by reconciliation.
type Handle struct {
	Name          string
	Signature     *Signature
	Runner        Runner
	InputNameMap  *NameMap
	OutputNameMap *NameMap

	// InputDeviceID below zero keeps batch input tensors in host memory;
	// otherwise they are allocated on the given device.
	InputDeviceID int64
}

// NoDevice is the InputDeviceID value for host-memory input tensors.
const NoDevice int64 = -1

// ModelDevice indicates placement is decided by the model itself.
const ModelDevice int64 = -2
