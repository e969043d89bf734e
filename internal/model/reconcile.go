package model

import (
	"github.com/rs/zerolog/log"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/config"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
)

// Validate reconciles a model configuration against the signature the loaded
// model reports. On success the handle's name maps are populated and any
// unknown-rank model shapes have been backfilled from the configuration.
// Every failure is fatal to the model load; nothing is retried.
func Validate(cfg *config.ModelConfig, sig *Signature) (inputNameMap, outputNameMap *NameMap, err error) {
	modelName := cfg.Name
	maxBatchSize := cfg.MaxBatchSize

	if err := ValidateConfigDataTypes(cfg); err != nil {
		return nil, nil, err
	}

	inputNameMap = NewNameMap()
	outputNameMap = NewNameMap()
	for _, io := range sig.Inputs() {
		inputNameMap.Put(io.Name, io.InModelName)
	}
	for _, io := range sig.Outputs() {
		outputNameMap.Put(io.Name, io.InModelName)
	}

	expectedInputCnt := len(cfg.Input) + len(cfg.BatchInput)

	// Sequence models reserve control inputs; each named control must exist
	// on the model with shape [1] and the declared type.
	if cfg.SequenceBatching != nil {
		for _, ctl := range []struct {
			kind      string
			isBoolean bool
		}{
			{config.ControlSequenceStart, true},
			{config.ControlSequenceEnd, true},
			{config.ControlSequenceReady, true},
			{config.ControlSequenceCorrID, false},
		} {
			have, err := validateSequenceControl(cfg, sig, maxBatchSize, ctl.kind, ctl.isBoolean)
			if err != nil {
				return nil, nil, err
			}
			if have {
				expectedInputCnt++
			}
		}
	}

	if sig.InputCount() != expectedInputCnt {
		return nil, nil, errors.InvalidArgumentf(
			"unable to load model '%s', configuration expects %d inputs, model provides %d",
			modelName, expectedInputCnt, sig.InputCount())
	}

	for i := range cfg.Input {
		io := &cfg.Input[i]
		input := sig.Input(io.Name)
		if input == nil {
			return nil, nil, errors.Internalf("unexpected inference input '%s'", io.Name)
		}

		dims := io.EffectiveDims()
		if input.Shape.Rank() != 0 {
			if io.AllowRaggedBatch {
				// A ragged input arrives as one flattened sequence, so the
				// model must accept exactly [-1].
				if input.Shape.Rank() != 1 || input.Shape[0] != tensor.WildcardDim {
					return nil, nil, errors.InvalidArgumentf(
						"unable to load model '%s', configuration expects model provides input with shape [-1] "+
							"for ragged input '%s', model provides %s",
						modelName, io.Name, tensor.ShapeToString(input.Shape, 0))
				}
			} else {
				// Inputs compare non-exact: the model guarantees output
				// shapes, but merely agrees to accept input sizes on its
				// wildcard dimensions.
				if err := tensor.CompareDims(
					modelName, io.Name, input.Shape, dims, maxBatchSize > 0, false); err != nil {
					return nil, nil, err
				}
			}
		} else {
			backfillShape(input, dims, maxBatchSize > 0)
		}

		if !types.CompareConfigDataType(input.DataType, io.DataType) {
			return nil, nil, errors.InvalidArgumentf(
				"unable to load model '%s', configuration expects datatype %s for input '%s', model provides %s",
				modelName, io.DataType, io.Name, input.DataType.ConfigString())
		}
	}

	for i := range cfg.Output {
		io := &cfg.Output[i]
		output := sig.Output(io.Name)
		if output == nil {
			return nil, nil, errors.Internalf("unexpected inference output '%s'", io.Name)
		}

		dims := io.EffectiveDims()
		if output.Shape.Rank() != 0 {
			// A batch-output transform produces this tensor, so its shape is
			// not constrained to match the model tensor directly.
			if cfg.FindBatchOutput(io.Name) == nil {
				if err := tensor.CompareDims(
					modelName, io.Name, output.Shape, dims, maxBatchSize > 0, true); err != nil {
					return nil, nil, err
				}
			}
		} else {
			backfillShape(output, dims, maxBatchSize > 0)
		}

		if !types.CompareConfigDataType(output.DataType, io.DataType) {
			return nil, nil, errors.InvalidArgumentf(
				"unable to load model '%s', configuration expects datatype %s for output '%s', model provides %s",
				modelName, io.DataType, io.Name, output.DataType.ConfigString())
		}
	}

	log.Debug().Msgf("model '%s' reconciled: %d inputs, %d outputs, max_batch_size %d",
		modelName, sig.InputCount(), sig.OutputCount(), maxBatchSize)

	return inputNameMap, outputNameMap, nil
}

// ValidateConfigDataTypes rejects any unrecognized symbolic data type before
// the per-tensor checks run.
func ValidateConfigDataTypes(cfg *config.ModelConfig) error {
	for i := range cfg.Input {
		if types.FromConfigString(cfg.Input[i].DataType) == types.DataTypeInvalid {
			return errors.InvalidArgumentf(
				"unsupported datatype '%s' for tensor '%s' for model '%s'",
				cfg.Input[i].DataType, cfg.Input[i].Name, cfg.Name)
		}
	}
	for i := range cfg.Output {
		if types.FromConfigString(cfg.Output[i].DataType) == types.DataTypeInvalid {
			return errors.InvalidArgumentf(
				"unsupported datatype '%s' for tensor '%s' for model '%s'",
				cfg.Output[i].DataType, cfg.Output[i].Name, cfg.Name)
		}
	}
	return nil
}

func validateSequenceControl(cfg *config.ModelConfig, sig *Signature, maxBatchSize int, kind string, isBoolean bool) (bool, error) {
	tensorName, dataType, have, err := cfg.SequenceControl(kind, isBoolean)
	if err != nil {
		return false, err
	}
	if !have {
		// An unnamed control simply isn't used by this model.
		return false, nil
	}

	input := sig.Input(tensorName)
	if input == nil {
		return false, errors.Internalf(
			"configuration specified sequence control '%s', but model does not provide that input", tensorName)
	}

	// Control tensors must have shape [1].
	if err := tensor.CompareDims(
		cfg.Name, tensorName, input.Shape, []int64{1}, maxBatchSize > 0, true); err != nil {
		return false, errors.InvalidArgumentf(
			"unable to load model '%s', sequence control '%s': %v", cfg.Name, tensorName, err)
	}

	if !types.CompareConfigDataType(input.DataType, dataType) {
		return false, errors.InvalidArgumentf(
			"unable to load model '%s', sequence control '%s': the model expects %s but the model "+
				"configuration specifies data-type %s",
			cfg.Name, tensorName, input.DataType.ConfigString(), dataType)
	}

	return true, nil
}

// backfillShape fills an unknown-rank model shape from the configuration's
// dims, leaving a wildcard batch slot when the model batches.
func backfillShape(io *IO, dims []int64, supportsBatching bool) {
	offset := 0
	if supportsBatching {
		offset = 1
	}
	shape := make(tensor.Shape, len(dims)+offset)
	if supportsBatching {
		shape[0] = tensor.WildcardDim
	}
	copy(shape[offset:], dims)
	io.Shape = shape
}
