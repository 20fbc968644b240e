package testing

import (
	"context"
	"sort"
	"testing"

	"github.com/blocklake/blocklake/pkg/block"
	"github.com/blocklake/blocklake/pkg/blockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listAll() blockstore.ListQuery {
	return blockstore.ListQuery{}
}

// seedBlocks stores the given contents and returns their ids sorted by hex,
// the order listings stream in.
func seedBlocks(t *testing.T, store blockstore.Store, contents []string) []block.ID {
	t.Helper()
	ids := make([]block.ID, 0, len(contents))
	for _, content := range contents {
		ids = append(ids, mustPut(t, store, testBlock(t, content)).ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	return ids
}

func listedIDs(stats []*block.Stats) []block.ID {
	ids := make([]block.ID, 0, len(stats))
	for _, s := range stats {
		ids = append(ids, s.ID)
	}
	return ids
}

// RunListTests exercises the streaming enumeration.
func (suite *StoreTestSuite) RunListTests(t *testing.T) {
	t.Run("EmptyStore", func(t *testing.T) {
		store := startedStore(t, suite)

		assert.Empty(t, collectList(t, store, listAll()))
	})

	t.Run("AscendingHexOrder", func(t *testing.T) {
		store := startedStore(t, suite)
		ids := seedBlocks(t, store, []string{"aa", "bb", "cc", "dd", "ee"})

		all := collectList(t, store, listAll())
		assert.Equal(t, ids, listedIDs(all))
	})

	t.Run("Limit", func(t *testing.T) {
		store := startedStore(t, suite)
		ids := seedBlocks(t, store, []string{"aa", "bb", "cc", "dd", "ee"})

		page := collectList(t, store, blockstore.ListQuery{Limit: 2})
		assert.Equal(t, ids[:2], listedIDs(page))
	})

	t.Run("AfterCursor", func(t *testing.T) {
		store := startedStore(t, suite)
		ids := seedBlocks(t, store, []string{"aa", "bb", "cc", "dd", "ee"})

		rest := collectList(t, store, blockstore.ListQuery{After: ids[1].Hex()})
		assert.Equal(t, ids[2:], listedIDs(rest))
	})

	t.Run("BeforeBound", func(t *testing.T) {
		store := startedStore(t, suite)
		ids := seedBlocks(t, store, []string{"aa", "bb", "cc", "dd", "ee"})

		head := collectList(t, store, blockstore.ListQuery{Before: ids[3].Hex()})
		assert.Equal(t, ids[:3], listedIDs(head))
	})

	t.Run("CursorPagination", func(t *testing.T) {
		store := startedStore(t, suite)
		ids := seedBlocks(t, store, []string{"aa", "bb", "cc", "dd", "ee"})

		// Walk the store page by page the way a resumable scan would.
		var walked []block.ID
		cursor := ""
		for {
			page := collectList(t, store, blockstore.ListQuery{Limit: 2, After: cursor})
			if len(page) == 0 {
				break
			}
			walked = append(walked, listedIDs(page)...)
			cursor = page[len(page)-1].ID.Hex()
		}
		assert.Equal(t, ids, walked)
	})

	t.Run("StatsCarrySize", func(t *testing.T) {
		store := startedStore(t, suite)
		b := testBlock(t, "sized payload")
		mustPut(t, store, b)

		all := collectList(t, store, listAll())
		require.Len(t, all, 1)
		assert.Equal(t, b.ID, all[0].ID)
		assert.Equal(t, int64(len("sized payload")), all[0].Size)
	})

	t.Run("CancelAbandonsStream", func(t *testing.T) {
		store := startedStore(t, suite)
		seedBlocks(t, store, []string{"aa", "bb", "cc", "dd", "ee"})

		ctx, cancel := context.WithCancel(testContext())
		ch := store.List(ctx, listAll())
		<-ch
		cancel()

		// The producer must shut down and close the channel.
		for range ch {
		}
	})
}
