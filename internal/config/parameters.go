package config

import (
	"github.com/spf13/cast"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

// Per-model string-valued tuning keys recognized under "parameters".
const (
	ParamMaxSessionShareCount = "MAX_SESSION_SHARE_COUNT"
	ParamNumIntraThreads      = "NUM_INTRA_THREADS"
	ParamNumInterThreads      = "NUM_INTER_THREADS"
	ParamUsePerSessionThreads = "USE_PER_SESSION_THREADS"
	ParamGraphTag             = "GRAPH_TAG"
	ParamSignatureDef         = "SIGNATURE_DEF"
)

// ParameterString looks up a string-valued parameter. A missing key is a
// not-found status so optional parameters can keep their defaults.
func (c *ModelConfig) ParameterString(key string) (string, error) {
	pv, ok := c.Parameters[key]
	if !ok {
		return "", errors.NotFoundf("parameter '%s' not found in model configuration for '%s'", key, c.Name)
	}
	return pv.StringValue, nil
}

// ParameterInt parses a string-valued parameter as an integer.
func (c *ModelConfig) ParameterInt(key string) (int, error) {
	s, err := c.ParameterString(key)
	if err != nil {
		return 0, err
	}
	v, err := cast.ToIntE(s)
	if err != nil {
		return 0, errors.InvalidArgumentf(
			"parameter '%s' for model '%s' is not an integer: %v", key, c.Name, err)
	}
	return v, nil
}

// ParameterBool parses a string-valued parameter as a boolean.
func (c *ModelConfig) ParameterBool(key string) (bool, error) {
	s, err := c.ParameterString(key)
	if err != nil {
		return false, err
	}
	v, err := cast.ToBoolE(s)
	if err != nil {
		return false, errors.InvalidArgumentf(
			"parameter '%s' for model '%s' is not a boolean: %v", key, c.Name, err)
	}
	return v, nil
}

// SessionConfig carries the per-model session tuning resolved from the
// configuration parameters.
type SessionConfig struct {
	MaxSessionShareCount int
	NumIntraThreads      int
	NumInterThreads      int
	UsePerSessionThreads bool
	GraphTag             string
	SignatureDef         string
}

// SessionConfigFromParameters resolves session tuning from the model
// configuration. Every key is optional; present keys are validated.
func SessionConfigFromParameters(c *ModelConfig) (*SessionConfig, error) {
	sc := &SessionConfig{MaxSessionShareCount: 1}

	if v, err := c.ParameterInt(ParamMaxSessionShareCount); err == nil {
		if v <= 0 {
			return nil, errors.InvalidArgumentf(
				"parameter '%s' must be a positive number for model '%s'", ParamMaxSessionShareCount, c.Name)
		}
		sc.MaxSessionShareCount = v
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	if v, err := c.ParameterInt(ParamNumIntraThreads); err == nil {
		if v < 0 {
			return nil, errors.InvalidArgumentf(
				"parameter '%s' must be a non-negative number for model '%s'", ParamNumIntraThreads, c.Name)
		}
		sc.NumIntraThreads = v
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	if v, err := c.ParameterInt(ParamNumInterThreads); err == nil {
		if v < 0 {
			return nil, errors.InvalidArgumentf(
				"parameter '%s' must be a non-negative number for model '%s'", ParamNumInterThreads, c.Name)
		}
		sc.NumInterThreads = v
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	if v, err := c.ParameterBool(ParamUsePerSessionThreads); err == nil {
		sc.UsePerSessionThreads = v
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	if v, err := c.ParameterString(ParamGraphTag); err == nil {
		sc.GraphTag = v
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	if v, err := c.ParameterString(ParamSignatureDef); err == nil {
		sc.SignatureDef = v
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	return sc, nil
}
