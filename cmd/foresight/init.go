package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foresight-ai/foresight/internal/config"
	"github.com/foresight-ai/foresight/internal/database"
)

const configTemplate = `# Foresight configuration
core:
  home_dir: %s
  timeout: 10m
  debug: false

database:
  path: %s
  max_connections: 10
  busy_timeout: 5s

llm:
  provider: openai
  model: ""
  # Supports ${ENV_VAR} interpolation.
  api_key: ${OPENAI_API_KEY}
  request_timeout: 30s
  max_retries: 2
  temperature: 0.7

pipeline:
  # Delay between consecutive generation calls within a stage.
  item_delay: 1s
  top_risks: 5
  contingency_plans: 3

logging:
  level: info
  format: text
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the Foresight home directory and database",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	defaults := config.DefaultConfig()
	homeDir := defaults.Core.HomeDir

	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		content := fmt.Sprintf(configTemplate, homeDir, defaults.Database.Path)
		if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		cmd.Printf("Created %s\n", configPath)
	} else {
		cmd.Printf("Config already exists at %s\n", configPath)
	}

	db, err := database.Open(defaults.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.NewMigrator(db).Migrate(cmd.Context()); err != nil {
		return err
	}
	cmd.Printf("Database ready at %s\n", defaults.Database.Path)

	return nil
}
