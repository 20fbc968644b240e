package config

import (
	"strings"
	"time"
)

// Default values applied to unset fields before validation.
const (
	DefaultLogLevel      = "INFO"
	DefaultStoreType     = "remote"
	DefaultRoot          = "/blocks/"
	DefaultProbeAttempts = 5
	DefaultProbeInterval = 200 * time.Millisecond
	DefaultListBuffer    = 16
	DefaultNamespaceType = "s3"
)

// ApplyDefaults fills in defaults for any unset fields.
//
// Called after unmarshalling and before validation, so a minimal config file
// (or none at all) still produces a valid configuration.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	if cfg.Store.Type == "" {
		cfg.Store.Type = DefaultStoreType
	}
	if cfg.Store.Root == "" {
		cfg.Store.Root = DefaultRoot
	}
	if cfg.Store.ProbeAttempts == 0 {
		cfg.Store.ProbeAttempts = DefaultProbeAttempts
	}
	if cfg.Store.ProbeInterval == 0 {
		cfg.Store.ProbeInterval = DefaultProbeInterval
	}
	if cfg.Store.ListBuffer == 0 {
		cfg.Store.ListBuffer = DefaultListBuffer
	}
	if cfg.Store.Type == "remote" && cfg.Store.Namespace.Type == "" {
		cfg.Store.Namespace.Type = DefaultNamespaceType
	}
}
