package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeConfigFile marshals a config document and writes it to a temp file.
func writeConfigFile(t *testing.T, doc map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "remote", cfg.Store.Type)
	assert.Equal(t, "/blocks/", cfg.Store.Root)
	assert.Equal(t, 5, cfg.Store.ProbeAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Store.ProbeInterval)
	assert.Equal(t, 16, cfg.Store.ListBuffer)
	assert.Equal(t, "s3", cfg.Store.Namespace.Type)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"logging": map[string]any{"level": "debug"},
		"store": map[string]any{
			"type":           "remote",
			"root":           "/cold/blocks/",
			"probe_attempts": 9,
			"probe_interval": "50ms",
			"namespace": map[string]any{
				"type": "localfs",
				"localfs": map[string]any{
					"path": "/var/lib/blocklake",
				},
			},
		},
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level is normalized to uppercase")
	assert.Equal(t, "/cold/blocks/", cfg.Store.Root)
	assert.Equal(t, 9, cfg.Store.ProbeAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Store.ProbeInterval)
	assert.Equal(t, "localfs", cfg.Store.Namespace.Type)
	assert.Equal(t, "/var/lib/blocklake", cfg.Store.Namespace.Localfs["path"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownStoreType(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"store": map[string]any{"type": "tape"},
	})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadRejectsUnknownNamespaceType(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"store": map[string]any{
			"type":      "remote",
			"namespace": map[string]any{"type": "ftp"},
		},
	})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown namespace type")
}

func TestValidateCustomRules(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		return cfg
	}

	t.Run("NegativeProbeAttempts", func(t *testing.T) {
		cfg := base()
		cfg.Store.ProbeAttempts = -1
		assert.Error(t, Validate(cfg))
	})

	t.Run("RelativeRoot", func(t *testing.T) {
		cfg := base()
		cfg.Store.Root = "blocks/"
		assert.Error(t, Validate(cfg))
	})

	t.Run("NonRemoteIgnoresNamespace", func(t *testing.T) {
		cfg := base()
		cfg.Store.Type = "memory"
		cfg.Store.Namespace.Type = "bogus"
		assert.NoError(t, Validate(cfg))
	})
}

func TestCredentialRegistry(t *testing.T) {
	reg := CredentialRegistry{
		"prod": {AccessKeyID: "AKID", SecretAccessKey: "secret"},
	}

	ts, err := reg.Lookup("prod")
	require.NoError(t, err)
	assert.Equal(t, "AKID", ts.AccessKeyID)

	_, err = reg.Lookup("staging")
	assert.Error(t, err)

	var none CredentialRegistry
	_, err = none.Lookup("prod")
	assert.Error(t, err)
}
