package config

import (
	"github.com/goccy/go-json"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

// Control kinds reserved for stateful (sequence) models.
const (
	ControlSequenceStart  = "CONTROL_SEQUENCE_START"
	ControlSequenceEnd    = "CONTROL_SEQUENCE_END"
	ControlSequenceReady  = "CONTROL_SEQUENCE_READY"
	ControlSequenceCorrID = "CONTROL_SEQUENCE_CORRID"
)

// Batch input/output transform kinds.
const (
	BatchInputElementCount                 = "BATCH_ELEMENT_COUNT"
	BatchInputAccumulatedElementCount      = "BATCH_ACCUMULATED_ELEMENT_COUNT"
	BatchInputAccumulatedElementCountZero  = "BATCH_ACCUMULATED_ELEMENT_COUNT_WITH_ZERO"
	BatchInputMaxElementCountAsShape       = "BATCH_MAX_ELEMENT_COUNT_AS_SHAPE"
	BatchOutputScatterWithInputShape       = "BATCH_SCATTER_WITH_INPUT_SHAPE"
)

// ModelConfig is the structured configuration document for one model. The
// host runtime owns loading it from disk; this package only interprets it.
type ModelConfig struct {
	Name                 string                    `json:"name"`
	Platform             string                    `json:"platform,omitempty"`
	MaxBatchSize         int                       `json:"max_batch_size"`
	Input                []TensorConfig            `json:"input,omitempty"`
	Output               []TensorConfig            `json:"output,omitempty"`
	BatchInput           []BatchInput              `json:"batch_input,omitempty"`
	BatchOutput          []BatchOutput             `json:"batch_output,omitempty"`
	SequenceBatching     *SequenceBatching         `json:"sequence_batching,omitempty"`
	DynamicBatching      *DynamicBatching          `json:"dynamic_batching,omitempty"`
	Optimization         *Optimization             `json:"optimization,omitempty"`
	Parameters           map[string]ParameterValue `json:"parameters,omitempty"`
	DefaultModelFilename string                    `json:"default_model_filename,omitempty"`
}

// TensorConfig declares one input or output. Dims never include the implicit
// leading batch dimension; that dimension is implied when max_batch_size > 0.
type TensorConfig struct {
	Name             string   `json:"name"`
	DataType         string   `json:"data_type,omitempty"`
	Dims             []int64  `json:"dims,omitempty"`
	Reshape          *Reshape `json:"reshape,omitempty"`
	AllowRaggedBatch bool     `json:"allow_ragged_batch,omitempty"`
}

type Reshape struct {
	Shape []int64 `json:"shape"`
}

// BatchInput is a logical input derived from properties of the whole batch
// rather than copied from any single request.
type BatchInput struct {
	Kind        string   `json:"kind"`
	TargetNames []string `json:"target_name"`
	DataType    string   `json:"data_type"`
	SourceInput []string `json:"source_input,omitempty"`
}

// BatchOutput is a model output split back per request by a transform
// instead of plain batch-dimension slicing.
type BatchOutput struct {
	Kind        string   `json:"kind"`
	TargetNames []string `json:"target_name"`
	SourceInput []string `json:"source_input,omitempty"`
}

type SequenceBatching struct {
	ControlInput []ControlInput `json:"control_input,omitempty"`
}

type ControlInput struct {
	Name    string    `json:"name"`
	Control []Control `json:"control"`
}

type Control struct {
	Kind          string    `json:"kind"`
	DataType      string    `json:"data_type,omitempty"`
	Int32FalseTrue []int32  `json:"int32_false_true,omitempty"`
	FP32FalseTrue []float32 `json:"fp32_false_true,omitempty"`
	BoolFalseTrue []bool    `json:"bool_false_true,omitempty"`
}

type DynamicBatching struct {
	PreferredBatchSize []int `json:"preferred_batch_size,omitempty"`
}

type Optimization struct {
	Graph *GraphOptimization `json:"graph,omitempty"`
}

type GraphOptimization struct {
	Level int64 `json:"level"`
}

// ParameterValue wraps the string-valued per-model tuning keys.
type ParameterValue struct {
	StringValue string `json:"string_value"`
}

// ParseModelConfig decodes a configuration document.
func ParseModelConfig(doc []byte) (*ModelConfig, error) {
	mc := &ModelConfig{}
	if err := json.Unmarshal(doc, mc); err != nil {
		return nil, errors.InvalidArgumentf("failed to parse model configuration: %v", err)
	}
	return mc, nil
}

// Marshal re-encodes the (possibly auto-completed) document.
func (c *ModelConfig) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// SupportsBatching reports whether the configuration expects a batching
// model. max_batch_size == 0 means batching is not supported and every call
// carries exactly one request's worth of data.
func (c *ModelConfig) SupportsBatching() bool {
	return c.MaxBatchSize > 0
}

// EffectiveDims returns the dims used when validating a tensor against the
// model: the reshape shape when one is declared, otherwise the declared dims.
func (t *TensorConfig) EffectiveDims() []int64 {
	if t.Reshape != nil {
		return t.Reshape.Shape
	}
	return t.Dims
}

// IsInputRagged reports whether the named input was declared ragged.
func (c *ModelConfig) IsInputRagged(name string) bool {
	for i := range c.Input {
		if c.Input[i].Name == name {
			return c.Input[i].AllowRaggedBatch
		}
	}
	return false
}

// FindBatchOutput returns the batch-output transform targeting name, or nil.
func (c *ModelConfig) FindBatchOutput(name string) *BatchOutput {
	for i := range c.BatchOutput {
		for _, tn := range c.BatchOutput[i].TargetNames {
			if tn == name {
				return &c.BatchOutput[i]
			}
		}
	}
	return nil
}

// SequenceControl resolves the tensor name and data type the configuration
// assigns to a control kind. Boolean controls take their type from whichever
// false/true value list is present. A kind the configuration does not name
// is not an error: ok is false and the model simply has no such control.
func (c *ModelConfig) SequenceControl(kind string, isBoolean bool) (name, dataType string, ok bool, err error) {
	if c.SequenceBatching == nil {
		return "", "", false, nil
	}
	for _, ci := range c.SequenceBatching.ControlInput {
		for _, ctl := range ci.Control {
			if ctl.Kind != kind {
				continue
			}
			if isBoolean {
				switch {
				case len(ctl.Int32FalseTrue) > 0:
					return ci.Name, "TYPE_INT32", true, nil
				case len(ctl.FP32FalseTrue) > 0:
					return ci.Name, "TYPE_FP32", true, nil
				case len(ctl.BoolFalseTrue) > 0:
					return ci.Name, "TYPE_BOOL", true, nil
				default:
					return "", "", false, errors.InvalidArgumentf(
						"sequence control '%s' in model '%s' specifies no false/true values", ci.Name, c.Name)
				}
			}
			if ctl.DataType == "" {
				return "", "", false, errors.InvalidArgumentf(
					"sequence control '%s' in model '%s' specifies no data type", ci.Name, c.Name)
			}
			return ci.Name, ctl.DataType, true, nil
		}
	}
	return "", "", false, nil
}
