package config

import (
	"strings"

	"github.com/spf13/viper"
)

// InitEnv wires viper to the process environment so APP_* keys resolve
// without an explicit config file.
func InitEnv() {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}
