package testing

import (
	"io"
	"testing"

	"github.com/blocklake/blocklake/pkg/block"
	"github.com/blocklake/blocklake/pkg/blockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedStore builds a fresh store, starts it and registers a cleanup stop.
func startedStore(t *testing.T, suite *StoreTestSuite) blockstore.LifecycleStore {
	t.Helper()
	store := suite.NewStore(t)
	require.NoError(t, store.Start(testContext()), "Start should succeed")
	t.Cleanup(func() { _ = store.Stop() })
	return store
}

// testBlock derives a sha256-addressed block from its content.
func testBlock(t *testing.T, content string) *block.Block {
	t.Helper()
	b, err := block.FromBytes("sha256", []byte(content))
	require.NoError(t, err, "building test block should succeed")
	return b
}

// mustPut stores a block and fails the test if it errors.
func mustPut(t *testing.T, store blockstore.Store, b *block.Block) *block.Block {
	t.Helper()
	stored, err := store.Put(testContext(), b)
	require.NoError(t, err, "Put should succeed")
	require.NotNil(t, stored, "Put should return the stored block")
	return stored
}

// mustRead fails the test unless the block exists, then returns its content.
func mustRead(t *testing.T, store blockstore.Store, id block.ID) []byte {
	t.Helper()
	b, err := store.Get(testContext(), id)
	require.NoError(t, err, "Get should succeed")
	require.NotNil(t, b, "block should exist")

	reader, err := b.Open(testContext())
	require.NoError(t, err, "Open should succeed")
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err, "reading content should succeed")
	return data
}

// collectList drains a full List stream, failing on any error element.
func collectList(t *testing.T, store blockstore.Store, q blockstore.ListQuery) []*block.Stats {
	t.Helper()
	var all []*block.Stats
	for res := range store.List(testContext(), q) {
		require.NoError(t, res.Err, "List should not fail")
		all = append(all, res.Stats)
	}
	return all
}

// assertBlockExists checks presence via Stat.
func assertBlockExists(t *testing.T, store blockstore.Store, id block.ID, expected bool) {
	t.Helper()
	stats, err := store.Stat(testContext(), id)
	require.NoError(t, err, "Stat should not error")
	assert.Equal(t, expected, stats != nil, "block existence mismatch")
}

// assertBlockEquals checks the stored content byte for byte.
func assertBlockEquals(t *testing.T, store blockstore.Store, id block.ID, expected []byte) {
	t.Helper()
	actual := mustRead(t, store, id)
	assert.Equal(t, expected, actual, "block content mismatch")
}
