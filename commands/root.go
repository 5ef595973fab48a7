// Package commands implements the facultyatlas CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/facultyatlas/config"
)

var (
	// Version is overridden at build time.
	Version = "0.1.0"
	// BuildTime is overridden at build time.
	BuildTime = "dev"
)

const appName = "facultyatlas"

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// Execute runs the CLI and returns its exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the facultyatlas command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Adaptive university faculty directory scraper",
		Long: `Facultyatlas discovers university faculty directories, extracts
faculty records from them, and resolves the records into an entity graph
of faculty, labs, departments, and universities.

Scraped entities can be exported as JSON, Turtle, N-Triples, or JSON-LD,
and optionally published to NATS as graph ingest events.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML); overrides layered config discovery")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newScrapeCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// newLogger configures structured logging at the requested level and
// installs it as the process default.
func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig resolves the effective configuration: an explicit --config
// file layered over defaults, or the loader's user/project discovery.
func loadConfig(opts *rootOptions, logger *slog.Logger) (*config.Config, error) {
	if opts.configPath != "" {
		fileCfg, err := config.LoadFromFile(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		cfg := config.DefaultConfig()
		cfg.Merge(fileCfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
