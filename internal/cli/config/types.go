// Package config provides configuration management for the cskg CLI.
//
// Configuration is resolved from four layers, lowest to highest precedence:
// built-in defaults, a cskg.yaml file (searched upward from the working
// directory), CSKG_-prefixed environment variables, and command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	// Driver selects the storage backend: "sqlite" or "postgres".
	Driver string `koanf:"driver"`
	// DSN is the database location: a file path (or ":memory:") for sqlite,
	// a connection string for postgres.
	DSN          string `koanf:"dsn"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultDriver = "sqlite"
	DefaultDSN    = ".cskg/graph.db"
	DefaultOutput = "auto" // Auto-detect: TTY=table, non-TTY=markdown
)
