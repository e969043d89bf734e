package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Init configures the global zerolog logger. APP_LOG_LEVEL picks the level,
// defaulting to info when unset or unrecognized.
func Init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(levelFromEnv())
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Info().Msgf("Logger initialized with level %s", zerolog.GlobalLevel())
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(viper.GetString("APP_LOG_LEVEL")) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
