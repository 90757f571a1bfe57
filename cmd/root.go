package main

import (
	"log/slog"
	"os"

	"github.com/cwbudde/swarmbench/internal/config"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "swarmbench",
	Short: "Benchmark harness for swarm optimizers",
	Long: `swarmbench runs PSO, GSA and tiled GSA on CEC17-style benchmark
functions, sweeps hyperparameter grids and exports every trajectory as JSON.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stderr, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "swarmbench.yaml", "Preset file; defaults apply when it does not exist")
}

// loadConfig reads the presets named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("Config loaded", "path", configPath, "out_dir", cfg.OutDir, "workers", cfg.Workers)
	return cfg, nil
}
