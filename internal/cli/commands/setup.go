// Package commands implements the cskg subcommands, one file per command.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cskg-labs/cskg/internal/cli/config"
	"github.com/cskg-labs/cskg/internal/graph"
	"github.com/cskg-labs/cskg/internal/store"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Store  store.Store
	Engine *graph.Engine
}

// NewCommandContext opens the configured store and builds the engine.
// Returns the context and a cleanup function that must be called (typically
// via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = st.Close()
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Store:  st,
		Engine: graph.New(st, logger),
	}, cleanup, nil
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		Driver:       getEnvOrDefault("CSKG_DRIVER", config.DefaultDriver),
		DSN:          getEnvOrDefault("CSKG_DSN", config.DefaultDSN),
		Verbose:      os.Getenv("CSKG_VERBOSE") == "true",
		OutputFormat: getEnvOrDefault("CSKG_OUTPUT", config.DefaultOutput),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		if cfg.DSN != ":memory:" {
			dir := filepath.Dir(cfg.DSN)
			if dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return nil, fmt.Errorf("failed to create database directory: %w", err)
				}
			}
		}
		s := store.NewSQLiteStore(logger)
		if err := s.Open(cfg.DSN); err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil

	case "postgres":
		s := store.NewPostgresStore(logger)
		if err := s.Open(cfg.DSN); err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown driver %q (expected sqlite or postgres)", cfg.Driver)
	}
}
