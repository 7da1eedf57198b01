package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/foresight-ai/foresight/internal/config"
	"github.com/foresight-ai/foresight/pkg/version"
)

var (
	configFile string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "foresight",
	Short: "Foresight - Risk Pre-Mortem Simulation Pipeline",
	Long: `Foresight runs pre-mortem analyses of business initiatives: it imagines
the initiative has already failed, generates the failure scenarios that
got it there, proposes mitigation strategies for each, and consolidates
everything into a ranked risk report.`,
	Version:           version.String(),
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig loads configuration before any command runs. Commands that can
// run without a config file (init, help) skip it.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "init" || cmd.Name() == "help" {
		return nil
	}

	path := configFile
	if path == "" {
		path = os.Getenv("FORESIGHT_CONFIG")
	}
	if path == "" {
		path = filepath.Join(config.DefaultConfig().Core.HomeDir, "config.yaml")
	}

	loaded, err := config.NewLoader(config.NewValidator()).Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	setupLogging(cfg)
	return nil
}

// setupLogging configures the process-wide logger from config and the
// --verbose flag.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose || cfg.Core.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(reportCmd)
}
