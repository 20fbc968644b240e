package testing

import (
	"testing"

	"github.com/blocklake/blocklake/pkg/blockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLifecycleTests exercises the start/stop state machine.
func (suite *StoreTestSuite) RunLifecycleTests(t *testing.T) {
	t.Run("OperationsRequireStart", func(t *testing.T) {
		store := suite.NewStore(t)
		id := testBlock(t, "unstarted").ID

		_, err := store.Stat(testContext(), id)
		assert.ErrorIs(t, err, blockstore.ErrNotStarted)

		_, err = store.Get(testContext(), id)
		assert.ErrorIs(t, err, blockstore.ErrNotStarted)

		_, err = store.Put(testContext(), testBlock(t, "unstarted"))
		assert.ErrorIs(t, err, blockstore.ErrNotStarted)

		assert.ErrorIs(t, store.Delete(testContext(), id), blockstore.ErrNotStarted)
		assert.ErrorIs(t, store.Erase(testContext()), blockstore.ErrNotStarted)

		res := <-store.List(testContext(), blockstore.ListQuery{})
		assert.ErrorIs(t, res.Err, blockstore.ErrNotStarted)
	})

	t.Run("DoubleStart", func(t *testing.T) {
		store := suite.NewStore(t)
		require.NoError(t, store.Start(testContext()))
		defer store.Stop()

		assert.ErrorIs(t, store.Start(testContext()), blockstore.ErrAlreadyStarted)
	})

	t.Run("StopIsIdempotent", func(t *testing.T) {
		store := suite.NewStore(t)
		require.NoError(t, store.Start(testContext()))

		require.NoError(t, store.Stop())
		require.NoError(t, store.Stop())
	})

	t.Run("NoRestartAfterStop", func(t *testing.T) {
		store := suite.NewStore(t)
		require.NoError(t, store.Start(testContext()))
		require.NoError(t, store.Stop())

		assert.ErrorIs(t, store.Start(testContext()), blockstore.ErrStopped)

		_, err := store.Stat(testContext(), testBlock(t, "stopped").ID)
		assert.ErrorIs(t, err, blockstore.ErrNotStarted)
	})
}
