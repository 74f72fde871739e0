package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the interop layer's settings.
type Config struct {
	// Backend forces a loader ("native" or "wasm"); empty means detect.
	Backend string `mapstructure:"backend"`
	// LibraryPath points straight at the artifact; empty means search.
	LibraryPath string   `mapstructure:"library_path"`
	SearchPaths []string `mapstructure:"search_paths"`
	LogLevel    string   `mapstructure:"log_level"`
	Symbols     string   `mapstructure:"symbols"`
}

// Load reads configuration with defaults, an optional YAML file, and
// OPENTUI_-prefixed environment overrides, in increasing precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("backend", "")
	v.SetDefault("library_path", "")
	v.SetDefault("search_paths", []string{"./lib"})
	v.SetDefault("log_level", "info")
	v.SetDefault("symbols", "")

	v.SetEnvPrefix("OPENTUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
