package config

import (
	"context"
	"testing"

	"github.com/blocklake/blocklake/pkg/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Type = "memory"

	store, err := CreateStore(ctx, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, store.Start(ctx))
	defer store.Stop()

	b, err := block.FromBytes("sha256", []byte("wired up"))
	require.NoError(t, err)
	_, err = store.Put(ctx, b)
	require.NoError(t, err)

	stats, err := store.Stat(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, b.ID, stats.ID)
}

func TestCreateRemoteStoreOverMemoryNamespace(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Namespace = NamespaceConfig{Type: "memory"}

	store, err := CreateStore(ctx, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, store.Start(ctx))
	defer store.Stop()

	b, err := block.FromBytes("sha1", []byte("through the factory"))
	require.NoError(t, err)
	stored, err := store.Put(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.ID)
}

func TestCreateBadgerStore(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Type = "badger"
	cfg.Store.Badger = map[string]any{"path": t.TempDir()}

	store, err := CreateStore(ctx, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, store.Start(ctx))
	require.NoError(t, store.Stop())
}

func TestCreateBadgerStoreRequiresPath(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Type = "badger"

	_, err := CreateStore(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestCreateLocalfsNamespaceRequiresPath(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Namespace = NamespaceConfig{Type: "localfs"}

	_, err := CreateStore(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestCreateS3NamespaceRequiresBucket(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Namespace = NamespaceConfig{
		Type: "s3",
		S3:   map[string]any{"region": "eu-west-1"},
	}

	_, err := CreateStore(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestCreateS3NamespaceUnresolvedCredentialRef(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Namespace = NamespaceConfig{
		Type: "s3",
		S3: map[string]any{
			"region":         "eu-west-1",
			"bucket":         "blocks",
			"credential_ref": "missing",
		},
	}

	_, err := CreateStore(context.Background(), cfg, CredentialRegistry{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in registry")
}
