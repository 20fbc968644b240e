package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWriteTests exercises Put, Delete and Erase.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("PutReturnsStats", func(t *testing.T) {
		store := startedStore(t, suite)
		b := testBlock(t, "fresh block")

		stored := mustPut(t, store, b)
		assert.Equal(t, b.ID, stored.ID)
		assert.Equal(t, int64(len("fresh block")), stored.Size)
		assert.False(t, stored.StoredAt.IsZero(), "StoredAt should be set")
	})

	t.Run("PutIsIdempotent", func(t *testing.T) {
		store := startedStore(t, suite)
		b := testBlock(t, "stored twice")

		first := mustPut(t, store, b)
		second := mustPut(t, store, b)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Size, second.Size)
		assertBlockEquals(t, store, b.ID, []byte("stored twice"))
	})

	t.Run("PutManyBlocks", func(t *testing.T) {
		store := startedStore(t, suite)
		contents := []string{"alpha", "beta", "gamma", "delta"}

		for _, content := range contents {
			mustPut(t, store, testBlock(t, content))
		}
		for _, content := range contents {
			assertBlockEquals(t, store, testBlock(t, content).ID, []byte(content))
		}
	})

	t.Run("DeleteStored", func(t *testing.T) {
		store := startedStore(t, suite)
		b := testBlock(t, "to be deleted")
		mustPut(t, store, b)

		require.NoError(t, store.Delete(testContext(), b.ID))
		assertBlockExists(t, store, b.ID, false)
	})

	t.Run("DeleteAbsent", func(t *testing.T) {
		store := startedStore(t, suite)

		err := store.Delete(testContext(), testBlock(t, "never stored").ID)
		assert.NoError(t, err, "deleting an absent block is not an error")
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		store := startedStore(t, suite)
		b := testBlock(t, "deleted twice")
		mustPut(t, store, b)

		require.NoError(t, store.Delete(testContext(), b.ID))
		require.NoError(t, store.Delete(testContext(), b.ID))
	})

	t.Run("Erase", func(t *testing.T) {
		store := startedStore(t, suite)
		for _, content := range []string{"one", "two", "three"} {
			mustPut(t, store, testBlock(t, content))
		}

		require.NoError(t, store.Erase(testContext()))

		assert.Empty(t, collectList(t, store, listAll()))
		assertBlockExists(t, store, testBlock(t, "one").ID, false)
	})

	t.Run("PutAfterErase", func(t *testing.T) {
		store := startedStore(t, suite)
		mustPut(t, store, testBlock(t, "pre-erase"))
		require.NoError(t, store.Erase(testContext()))

		b := testBlock(t, "post-erase")
		mustPut(t, store, b)
		assertBlockEquals(t, store, b.ID, []byte("post-erase"))
	})
}
