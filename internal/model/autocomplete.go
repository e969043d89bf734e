package model

import (
	"github.com/rs/zerolog/log"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/config"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

// AutoComplete fills the parts of a configuration the author omitted from
// the model's own signature: batching support, max_batch_size, per-tensor
// dims, and a dynamic-batching directive. It never overwrites a per-tensor
// declaration that is already present; it fails loudly when a present
// declaration contradicts the model. Running it on an already-complete valid
// configuration changes nothing.
func AutoComplete(cfg *config.ModelConfig, sig *Signature, settings *config.BackendSettings) error {
	supportsBatching, err := resolveBatchingSupport(cfg, sig)
	if err != nil {
		return err
	}

	if cfg.MaxBatchSize == 0 {
		newMax := 0
		if supportsBatching && settings.DefaultMaxBatchSize > 0 {
			newMax = settings.DefaultMaxBatchSize
		}
		cfg.MaxBatchSize = newMax
		if supportsBatching {
			log.Warn().Msgf(
				"autofilled max_batch_size to %d for model '%s' since batching is supported but no "+
					"max_batch_size is specified in model configuration. Must specify max_batch_size to "+
					"utilize autofill with a larger max batch size", newMax, cfg.Name)
		}
	}

	if err := fixIOConfig(cfg, sig.Inputs(), &cfg.Input, "input", supportsBatching); err != nil {
		return err
	}
	if err := fixIOConfig(cfg, sig.Outputs(), &cfg.Output, "output", supportsBatching); err != nil {
		return err
	}

	// Tell the surrounding scheduler to merge requests when nothing else
	// schedules them.
	if cfg.MaxBatchSize > 1 && cfg.SequenceBatching == nil && cfg.DynamicBatching == nil {
		cfg.DynamicBatching = &config.DynamicBatching{}
	}

	return nil
}

// resolveBatchingSupport decides whether the model batches. The signature
// alone says yes only when every input and output leads with a wildcard;
// when that is ambiguous against max_batch_size == 0, partially specified
// config tensors are scanned (inputs then outputs, declaration order) for a
// hint. The first hint wins and only an explicit contradiction fails — a
// no-hint tensor followed by a later contradicting one after defaulting is
// accepted, an ordering dependence kept intentionally.
func resolveBatchingSupport(cfg *config.ModelConfig, sig *Signature) (bool, error) {
	sigSupportsBatch := sig.SupportsBatching()

	if !sigSupportsBatch && cfg.MaxBatchSize > 0 {
		return false, errors.Internalf(
			"unable to autofill for '%s', configuration specified max-batch %d but model signature "+
				"does not support batching", cfg.Name, cfg.MaxBatchSize)
	}

	supportsBatching := sigSupportsBatch
	if !sigSupportsBatch || cfg.MaxBatchSize != 0 {
		return supportsBatching, nil
	}

	haveHint := false
	for _, group := range []struct {
		ios    []config.TensorConfig
		lookup func(string) *IO
	}{
		{cfg.Input, sig.Input},
		{cfg.Output, sig.Output},
	} {
		for i := range group.ios {
			io := &group.ios[i]
			if io.Name == "" {
				continue
			}
			dims := io.EffectiveDims()
			if len(dims) == 0 {
				continue
			}
			modelIO := group.lookup(io.Name)
			if modelIO == nil {
				continue
			}
			shouldBatch := modelIO.Shape.Rank() == len(dims)+1
			if haveHint && supportsBatching != shouldBatch {
				return false, errors.Internalf(
					"unable to autofill for '%s', model tensor configurations are contradicting each "+
						"other in terms of whether batching is supported", cfg.Name)
			}
			haveHint = true
			supportsBatching = shouldBatch
		}
	}

	return supportsBatching, nil
}

// fixIOConfig synthesizes missing per-tensor declarations from the model's
// signature and validates the arity of present ones.
func fixIOConfig(cfg *config.ModelConfig, modelIOs []*IO, configIOs *[]config.TensorConfig, key string, supportsBatching bool) error {
	declared := make(map[string]*config.TensorConfig, len(*configIOs))
	for i := range *configIOs {
		declared[(*configIOs)[i].Name] = &(*configIOs)[i]
	}

	for _, io := range modelIOs {
		existing, found := declared[io.Name]

		if io.Shape.Rank() == 0 {
			// With no shape from the model the configuration must carry the
			// dimensions itself.
			if !found || len(existing.Dims) == 0 {
				return errors.InvalidArgumentf(
					"unable to autofill for '%s': the rank of model tensor '%s' is 0 and dimensions "+
						"are not defined for all %s", cfg.Name, io.Name, key)
			}
			continue
		}

		if found {
			// Never overwrite what the author declared, only check that its
			// arity (reshape-adjusted) matches the model's rank.
			wantRank := io.Shape.Rank()
			if supportsBatching {
				wantRank--
			}
			if len(existing.EffectiveDims()) != wantRank {
				return errors.InvalidArgumentf(
					"number of dimensions (%d) given for '%s' in configuration does not match the "+
						"rank (%d) of the loaded model", len(existing.EffectiveDims()), cfg.Name, wantRank)
			}
			continue
		}

		synth := config.TensorConfig{
			Name:     io.Name,
			DataType: io.DataType.ConfigString(),
		}
		start := 0
		if supportsBatching {
			start = 1
		}
		for i := start; i < io.Shape.Rank(); i++ {
			synth.Dims = append(synth.Dims, io.Shape[i])
		}
		// dims is not allowed to be empty, so a scalar tensor gets dims [1]
		// with an empty reshape restoring the true shape.
		if len(synth.Dims) == 0 {
			synth.Dims = []int64{1}
			synth.Reshape = &config.Reshape{Shape: []int64{}}
		}
		*configIOs = append(*configIOs, synth)
	}

	return nil
}
