package remotens

import (
	"context"
	"testing"
	"time"

	nsmemory "github.com/blocklake/blocklake/pkg/namespace/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeObject(t *testing.T, ns *nsmemory.Namespace, path, content string) {
	t.Helper()
	w, err := ns.CreateIfAbsent(context.Background(), path, 0600)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestAwaitVisibleImmediate(t *testing.T) {
	ns := nsmemory.New(nsmemory.Config{})
	writeObject(t, ns, "/blocks/aa", "1234")

	ok := awaitVisible(context.Background(), ns, "/blocks/aa", 4, 5, time.Millisecond)
	assert.True(t, ok)
}

func TestAwaitVisibleAfterLag(t *testing.T) {
	ns := nsmemory.New(nsmemory.Config{VisibilityLag: 3})
	writeObject(t, ns, "/blocks/aa", "1234")

	ok := awaitVisible(context.Background(), ns, "/blocks/aa", 4, 5, time.Millisecond)
	assert.True(t, ok)
}

func TestAwaitVisibleExhausted(t *testing.T) {
	ns := nsmemory.New(nsmemory.Config{VisibilityLag: 10})
	writeObject(t, ns, "/blocks/aa", "1234")

	ok := awaitVisible(context.Background(), ns, "/blocks/aa", 4, 5, time.Millisecond)
	assert.False(t, ok)
}

func TestAwaitVisibleMissingPath(t *testing.T) {
	ns := nsmemory.New(nsmemory.Config{})

	ok := awaitVisible(context.Background(), ns, "/blocks/ghost", 4, 3, time.Millisecond)
	assert.False(t, ok)
}

func TestAwaitVisibleCancelled(t *testing.T) {
	ns := nsmemory.New(nsmemory.Config{VisibilityLag: 10})
	writeObject(t, ns, "/blocks/aa", "1234")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ok := awaitVisible(ctx, ns, "/blocks/aa", 4, 5, time.Second)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second, "cancellation must not wait out the intervals")
}
