package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := getDefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			Timeout: 10 * time.Minute,
			Debug:   false,
		},
		Database: DBConfig{
			Path:           filepath.Join(homeDir, "foresight.db"),
			MaxConnections: 10,
			BusyTimeout:    5 * time.Second,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "",
			RequestTimeout: 30 * time.Second,
			MaxRetries:     2,
			Temperature:    0.7,
		},
		Pipeline: PipelineConfig{
			ItemDelay:        time.Second,
			TopRisks:         5,
			ContingencyPlans: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// getDefaultHomeDir returns the default Foresight home directory.
// It uses ~/.foresight or falls back to a temporary directory if the user
// home cannot be determined.
func getDefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".foresight")
	}
	return filepath.Join(userHome, ".foresight")
}
