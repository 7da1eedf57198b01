package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, NewValidator().Validate(cfg))

	assert.Equal(t, 30*time.Second, cfg.LLM.RequestTimeout)
	assert.Equal(t, time.Second, cfg.Pipeline.ItemDelay)
	assert.Equal(t, 5, cfg.Pipeline.TopRisks)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loader := NewLoader(NewValidator())

	cfg, err := loader.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.Provider, cfg.LLM.Provider)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: anthropic
  model: claude-sonnet-4-20250514
  request_timeout: 45s
  max_retries: 1
pipeline:
  item_delay: 250ms
  top_risks: 3
  contingency_plans: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 45*time.Second, cfg.LLM.RequestTimeout)
	assert.Equal(t, 1, cfg.LLM.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.ItemDelay)
	assert.Equal(t, 3, cfg.Pipeline.TopRisks)

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultConfig().Database.MaxConnections, cfg.Database.MaxConnections)
}

func TestLoadInterpolatesEnvVars(t *testing.T) {
	t.Setenv("FORESIGHT_TEST_KEY", "sk-test-123")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: openai
  api_key: ${FORESIGHT_TEST_KEY}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.LLM.APIKey)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "carrier-pigeon"

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestValidateRejectsContingencyExceedingTopRisks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.TopRisks = 2
	cfg.Pipeline.ContingencyPlans = 5

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contingency_plans")
}
