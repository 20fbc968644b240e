package testing

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunReadTests exercises Stat, Get and range reads.
func (suite *StoreTestSuite) RunReadTests(t *testing.T) {
	t.Run("StatAbsent", func(t *testing.T) {
		store := startedStore(t, suite)

		stats, err := store.Stat(testContext(), testBlock(t, "never stored").ID)
		require.NoError(t, err, "absence is not an error")
		assert.Nil(t, stats)
	})

	t.Run("GetAbsent", func(t *testing.T) {
		store := startedStore(t, suite)

		b, err := store.Get(testContext(), testBlock(t, "never stored").ID)
		require.NoError(t, err, "absence is not an error")
		assert.Nil(t, b)
	})

	t.Run("StatStored", func(t *testing.T) {
		store := startedStore(t, suite)
		b := testBlock(t, "some stored bytes")
		mustPut(t, store, b)

		stats, err := store.Stat(testContext(), b.ID)
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Equal(t, b.ID, stats.ID)
		assert.Equal(t, int64(len("some stored bytes")), stats.Size)
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		store := startedStore(t, suite)
		content := []byte("round trip payload")
		b := testBlock(t, string(content))
		mustPut(t, store, b)

		assertBlockEquals(t, store, b.ID, content)
	})

	t.Run("GetRange", func(t *testing.T) {
		store := startedStore(t, suite)
		b := testBlock(t, "0123456789")
		mustPut(t, store, b)

		got, err := store.Get(testContext(), b.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		reader, err := got.OpenRange(testContext(), 2, 7)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "23456", string(data))
	})

	t.Run("GetRangeToEnd", func(t *testing.T) {
		store := startedStore(t, suite)
		b := testBlock(t, "0123456789")
		mustPut(t, store, b)

		got, err := store.Get(testContext(), b.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		reader, err := got.OpenRange(testContext(), 5, -1)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "56789", string(data))
	})

	t.Run("IndependentReaders", func(t *testing.T) {
		store := startedStore(t, suite)
		content := []byte("read me twice")
		b := testBlock(t, string(content))
		mustPut(t, store, b)

		got, err := store.Get(testContext(), b.ID)
		require.NoError(t, err)
		require.NotNil(t, got)

		for i := 0; i < 2; i++ {
			reader, err := got.Open(testContext())
			require.NoError(t, err)
			data, err := io.ReadAll(reader)
			require.NoError(t, err)
			require.NoError(t, reader.Close())
			assert.Equal(t, content, data)
		}
	})
}
