package config

import (
	"os"
	"regexp"

	"github.com/spf13/viper"

	"github.com/foresight-ai/foresight/internal/types"
)

// envVarPattern matches ${VAR_NAME} references in configuration values.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Loader handles loading configuration from files.
type Loader interface {
	// Load reads configuration from the given file path, layered over
	// defaults, and validates the result.
	Load(path string) (*Config, error)
}

// viperLoader implements Loader using viper.
type viperLoader struct {
	validator Validator
}

// NewLoader creates a new Loader instance.
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

// Load loads configuration from the specified file path. Missing file is not
// an error: defaults are returned. Values support ${ENV_VAR} interpolation.
func (l *viperLoader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "reading config file", err)
				}
			}
		} else if err := v.Unmarshal(cfg); err != nil {
			return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "unmarshaling config", err)
		}
	}

	interpolate(cfg)

	if err := l.validator.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// interpolate expands ${ENV_VAR} references in the string fields that
// commonly carry secrets or host-specific values.
func interpolate(cfg *Config) {
	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	cfg.LLM.BaseURL = expandEnv(cfg.LLM.BaseURL)
	cfg.Database.Path = expandEnv(cfg.Database.Path)
	cfg.Core.HomeDir = expandEnv(cfg.Core.HomeDir)
}

// expandEnv replaces ${VAR} references with their environment values.
// Unset variables expand to the empty string.
func expandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
