// Package config loads, validates and materializes block store configuration.
//
// Configuration follows the type-plus-options pattern: a Type field selects
// the store (or namespace) implementation and only the matching options
// section is decoded, so each backend keeps its own schema.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete blocklake configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (BLOCKLAKE_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Store specifies the block store type and type-specific configuration
	Store StoreConfig `mapstructure:"store"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// StoreConfig specifies the block store configuration.
//
// The Type field determines which implementation is used. Only the
// corresponding type-specific section is read.
type StoreConfig struct {
	// Type specifies which block store implementation to use
	// Valid values: remote, memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=remote memory badger"`

	// Root is the directory all blocks live under. Used by the remote store.
	Root string `mapstructure:"root"`

	// CheckSummary logs an object-count and byte-usage summary at startup.
	CheckSummary bool `mapstructure:"check_summary"`

	// ProbeAttempts bounds the post-write consistency probe.
	ProbeAttempts int `mapstructure:"probe_attempts"`

	// ProbeInterval is the delay between consistency probes.
	ProbeInterval time.Duration `mapstructure:"probe_interval"`

	// ListBuffer is the List channel capacity.
	ListBuffer int `mapstructure:"list_buffer"`

	// Namespace selects and configures the remote namespace backend.
	// Only used when Type = "remote".
	Namespace NamespaceConfig `mapstructure:"namespace"`

	// Badger contains BadgerDB-specific options.
	// Only used when Type = "badger".
	Badger map[string]any `mapstructure:"badger"`
}

// NamespaceConfig specifies the remote namespace backend.
type NamespaceConfig struct {
	// Type specifies which namespace backend to use
	// Valid values: s3, localfs, memory
	Type string `mapstructure:"type"`

	// S3 contains S3-specific options. Only used when Type = "s3".
	S3 map[string]any `mapstructure:"s3"`

	// Localfs contains filesystem options. Only used when Type = "localfs".
	Localfs map[string]any `mapstructure:"localfs"`

	// Memory contains memory backend options. Only used when Type = "memory".
	Memory map[string]any `mapstructure:"memory"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath skips the file and uses environment plus defaults
// only; a named file that does not exist is an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Environment variables use the BLOCKLAKE_ prefix with underscores.
	// Example: BLOCKLAKE_STORE_PROBE_ATTEMPTS=10
	v.SetEnvPrefix("BLOCKLAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
