// Package config handles configuration loading, validation, and hot
// reload for the sync core.
package config

import (
	"fmt"
	"os"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the sync core configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Replication holds session defaults.
	Replication ReplicationConfig `toml:"replication" json:"replication" yaml:"replication"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// ReplicationConfig holds defaults applied to new sessions.
type ReplicationConfig struct {
	// DefaultPushMode and DefaultPullMode name the modes used when a
	// caller does not specify one: "disabled", "passive", "one-shot"
	// or "continuous".
	DefaultPushMode string `toml:"default_push_mode" json:"default_push_mode" yaml:"default_push_mode"`
	DefaultPullMode string `toml:"default_pull_mode" json:"default_pull_mode" yaml:"default_pull_mode"`

	// HeartbeatSec is the keepalive interval the protocol engine is
	// asked to use, in seconds.
	HeartbeatSec int `toml:"heartbeat_sec" json:"heartbeat_sec" yaml:"heartbeat_sec"`

	// MaxRetries bounds reconnection attempts for transient failures.
	MaxRetries int `toml:"max_retries" json:"max_retries" yaml:"max_retries"`

	// MaxRetryIntervalSec caps the backoff between retries.
	MaxRetryIntervalSec int `toml:"max_retry_interval_sec" json:"max_retry_interval_sec" yaml:"max_retry_interval_sec"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int64  `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// validModes are the accepted replication mode names.
var validModes = map[string]bool{
	"disabled":   true,
	"passive":    true,
	"one-shot":   true,
	"continuous": true,
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: Version,
		Replication: ReplicationConfig{
			DefaultPushMode:     "continuous",
			DefaultPullMode:     "continuous",
			HeartbeatSec:        300,
			MaxRetries:          9,
			MaxRetryIntervalSec: 300,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Version <= 0 || c.Version > Version {
		return fmt.Errorf("unsupported config version %d", c.Version)
	}
	if m := c.Replication.DefaultPushMode; !validModes[m] {
		return fmt.Errorf("invalid default push mode %q", m)
	}
	if m := c.Replication.DefaultPullMode; !validModes[m] {
		return fmt.Errorf("invalid default pull mode %q", m)
	}
	if c.Replication.DefaultPushMode == "disabled" && c.Replication.DefaultPullMode == "disabled" {
		return fmt.Errorf("default push and pull modes are both disabled")
	}
	if c.Replication.HeartbeatSec < 0 {
		return fmt.Errorf("heartbeat_sec must not be negative")
	}
	if c.Replication.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Replication.MaxRetryIntervalSec < 0 {
		return fmt.Errorf("max_retry_interval_sec must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("REPLICORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REPLICORE_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}
}
