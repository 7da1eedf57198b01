package config

import (
	"time"
)

// Config is the root configuration for Foresight.
type Config struct {
	Core     CoreConfig     `mapstructure:"core" yaml:"core" validate:"required"`
	Database DBConfig       `mapstructure:"database" yaml:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir string        `mapstructure:"home_dir" yaml:"home_dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	Debug   bool          `mapstructure:"debug" yaml:"debug"`
}

// DBConfig contains database configuration.
type DBConfig struct {
	Path           string        `mapstructure:"path" yaml:"path"`
	MaxConnections int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=1,max=100"`
	BusyTimeout    time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout" validate:"min=100ms"`
}

// LLMConfig contains generation provider configuration.
type LLMConfig struct {
	// Provider selects the backing text-generation service.
	Provider string `mapstructure:"provider" yaml:"provider" validate:"required,oneof=openai anthropic google ollama mock"`

	// Model is the provider-specific model identifier. Empty uses the
	// provider's default.
	Model string `mapstructure:"model" yaml:"model"`

	// APIKey authenticates against the provider. Supports ${ENV_VAR}
	// interpolation; falls back to the provider's conventional environment
	// variable when empty.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// BaseURL overrides the provider endpoint (local gateways, proxies).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// RequestTimeout bounds every single generation call so a hung
	// provider cannot stall a batch indefinitely.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"min=1s"`

	// MaxRetries is the number of additional attempts made for a
	// generation call that failed with a retryable error.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0,max=5"`

	// Temperature for generation calls.
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
}

// PipelineConfig contains stage execution settings.
type PipelineConfig struct {
	// ItemDelay is the pause inserted between consecutive batch items to
	// respect provider rate limits.
	ItemDelay time.Duration `mapstructure:"item_delay" yaml:"item_delay" validate:"min=0"`

	// TopRisks is the number of highest-ranked scenarios listed in the
	// report's top-risks section.
	TopRisks int `mapstructure:"top_risks" yaml:"top_risks" validate:"min=1,max=20"`

	// ContingencyPlans is the number of highest-severity scenarios that
	// receive a contingency plan in the report.
	ContingencyPlans int `mapstructure:"contingency_plans" yaml:"contingency_plans" validate:"min=1,max=10"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}
