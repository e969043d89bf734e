package config

import (
	"github.com/spf13/cast"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
)

// Backend-level string-valued tuning keys.
const (
	SettingAllowSoftPlacement  = "allow-soft-placement"
	SettingGPUMemoryFraction   = "gpu-memory-fraction"
	SettingDefaultMaxBatchSize = "default-max-batch-size"
)

// BackendSettings is the per-backend-instance configuration. It is built
// once and passed into model construction by ownership reference; there is
// no process-wide singleton.
type BackendSettings struct {
	AllowSoftPlacement   bool
	AllowGPUMemoryGrowth bool
	GPUMemoryFraction    float64
	DefaultMaxBatchSize  int
}

// DefaultBackendSettings returns the settings used when the host supplies
// no overrides.
func DefaultBackendSettings() *BackendSettings {
	return &BackendSettings{
		AllowSoftPlacement:   true,
		AllowGPUMemoryGrowth: true,
		GPUMemoryFraction:    0.0,
		DefaultMaxBatchSize:  0,
	}
}

// ParseBackendSettings applies string-valued overrides from the host
// runtime's backend configuration on top of the defaults.
func ParseBackendSettings(values map[string]string) (*BackendSettings, error) {
	s := DefaultBackendSettings()

	if v, ok := values[SettingAllowSoftPlacement]; ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, errors.InvalidArgumentf(
				"backend setting '%s' is not a boolean: %v", SettingAllowSoftPlacement, err)
		}
		s.AllowSoftPlacement = b
	}

	if v, ok := values[SettingGPUMemoryFraction]; ok {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, errors.InvalidArgumentf(
				"backend setting '%s' is not a number: %v", SettingGPUMemoryFraction, err)
		}
		s.GPUMemoryFraction = f
		s.AllowGPUMemoryGrowth = f == 0.0
	}

	if v, ok := values[SettingDefaultMaxBatchSize]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, errors.InvalidArgumentf(
				"backend setting '%s' is not an integer: %v", SettingDefaultMaxBatchSize, err)
		}
		s.DefaultMaxBatchSize = n
	}

	return s, nil
}
