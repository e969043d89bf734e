package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	modelconfig "github.com/Meesho/BharatMLStack/tensor-batcher/internal/config"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/model"
	"github.com/Meesho/BharatMLStack/tensor-batcher/pkg/config"
	"github.com/Meesho/BharatMLStack/tensor-batcher/pkg/logger"
	"github.com/Meesho/BharatMLStack/tensor-batcher/pkg/metric"
)

// config-check auto-completes a model configuration against a signature
// document and validates the result, printing the completed configuration on
// success. It exits non-zero when the configuration cannot serve the model.
func main() {
	config.InitEnv()
	logger.Init()
	metric.Init()

	configPath := flag.String("model-config", "", "path to the model configuration document")
	signaturePath := flag.String("signature", "", "path to the model signature document")
	flag.Parse()

	if *configPath == "" || *signaturePath == "" {
		log.Fatal().Msg("both -model-config and -signature are required")
	}

	cfgDoc, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatal().Msgf("failed to read model configuration: %v", err)
	}
	sigDoc, err := os.ReadFile(*signaturePath)
	if err != nil {
		log.Fatal().Msgf("failed to read model signature: %v", err)
	}

	cfg, err := modelconfig.ParseModelConfig(cfgDoc)
	if err != nil {
		log.Fatal().Msgf("%v", err)
	}
	sig, err := model.ParseSignature(sigDoc)
	if err != nil {
		log.Fatal().Msgf("%v", err)
	}

	settings := backendSettingsFromEnv()

	if err := model.AutoComplete(cfg, sig, settings); err != nil {
		metric.Incr(metric.ConfigValidationError, []string{metric.TagAsString(metric.TagModel, cfg.Name)})
		log.Fatal().Msgf("auto-complete failed for model '%s': %v", cfg.Name, err)
	}
	metric.Incr(metric.ConfigAutoCompleted, []string{metric.TagAsString(metric.TagModel, cfg.Name)})

	if _, _, err := model.Validate(cfg, sig); err != nil {
		metric.Incr(metric.ConfigValidationError, []string{metric.TagAsString(metric.TagModel, cfg.Name)})
		log.Fatal().Msgf("validation failed for model '%s': %v", cfg.Name, err)
	}

	out, err := cfg.Marshal()
	if err != nil {
		log.Fatal().Msgf("failed to marshal completed configuration: %v", err)
	}
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}

func backendSettingsFromEnv() *modelconfig.BackendSettings {
	settings := modelconfig.DefaultBackendSettings()
	if viper.IsSet("BACKEND_DEFAULT_MAX_BATCH_SIZE") {
		settings.DefaultMaxBatchSize = viper.GetInt("BACKEND_DEFAULT_MAX_BATCH_SIZE")
	}
	if viper.IsSet("BACKEND_ALLOW_SOFT_PLACEMENT") {
		settings.AllowSoftPlacement = viper.GetBool("BACKEND_ALLOW_SOFT_PLACEMENT")
	}
	if viper.IsSet("BACKEND_GPU_MEMORY_FRACTION") {
		settings.GPUMemoryFraction = viper.GetFloat64("BACKEND_GPU_MEMORY_FRACTION")
		settings.AllowGPUMemoryGrowth = settings.GPUMemoryFraction == 0.0
	}
	return settings
}
