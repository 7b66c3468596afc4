package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/nagplug/internal/nagsolver"
	"github.com/cwbudde/nagplug/internal/solver"
)

var (
	logLevel    string
	logger      *slog.Logger
	dataDir     string
	pluginPaths []string
)

var rootCmd = &cobra.Command{
	Use:   "nagplug",
	Short: "Solver plugins over an e04-style optimisation library",
	Long: `nagplug runs minimisation problems through solver plugins that drive an
e04-style optimisation library: a Nelder-Mead simplex, a BFGS quasi-Newton
method and a bounded mayfly swarm search.

Problems are described in YAML files with expression objectives. Results are
stored as run records and can be served over HTTP.`,
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
		handler := slog.NewJSONHandler(os.Stdout, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Base directory for run records and traces")
	rootCmd.PersistentFlags().StringArrayVar(&pluginPaths, "plugin", nil, "Load an additional solver plugin (.so); may be repeated")
}

// newRegistry returns the built-in adapters plus every --plugin. A plugin
// with a built-in name replaces the built-in.
func newRegistry() (*solver.Registry, error) {
	reg := nagsolver.NewRegistry()
	for _, path := range pluginPaths {
		p, err := solver.Open(path)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(p); err != nil {
			return nil, fmt.Errorf("failed to register plugin %s: %w", path, err)
		}
	}
	return reg, nil
}
