package localfs

import (
	"context"
	"io"
	"testing"

	"github.com/blocklake/blocklake/pkg/namespace"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNamespace() *Namespace {
	return New(afero.NewMemMapFs())
}

func write(t *testing.T, ns *Namespace, path, content string) {
	t.Helper()
	w, err := ns.CreateIfAbsent(context.Background(), path, 0600)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestCreateIfAbsentExclusive(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace()
	write(t, ns, "/blocks/aa", "one")

	_, err := ns.CreateIfAbsent(ctx, "/blocks/aa", 0600)
	assert.ErrorIs(t, err, namespace.ErrExists)
}

func TestStatReadRename(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace()
	write(t, ns, "/blocks/aa.ATTEMPT", "1234")

	entry, err := ns.StatEntry(ctx, "/blocks/aa.ATTEMPT")
	require.NoError(t, err)
	assert.Equal(t, int64(4), entry.Size)

	require.NoError(t, ns.Rename(ctx, "/blocks/aa.ATTEMPT", "/blocks/aa"))

	rc, err := ns.OpenRead(ctx, "/blocks/aa")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "1234", string(data))

	_, err = ns.StatEntry(ctx, "/blocks/aa.ATTEMPT")
	assert.ErrorIs(t, err, namespace.ErrNotFound)
}

func TestOpenReadRange(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace()
	write(t, ns, "/blocks/aa", "0123456789")

	rc, err := ns.OpenReadRange(ctx, "/blocks/aa", 3, 4)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(data))

	rc, err = ns.OpenReadRange(ctx, "/blocks/aa", 8, -1)
	require.NoError(t, err)
	defer rc.Close()
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "89", string(data))
}

func TestListChildren(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace()
	write(t, ns, "/blocks/cc", "3")
	write(t, ns, "/blocks/aa", "1")
	write(t, ns, "/blocks/bb", "2")

	entries, err := ns.ListChildren(ctx, "/blocks", "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "aa", entries[0].Name)
	assert.Equal(t, "bb", entries[1].Name)
	assert.Equal(t, "cc", entries[2].Name)

	entries, err = ns.ListChildren(ctx, "/blocks", "aa", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bb", entries[0].Name)

	_, err = ns.ListChildren(ctx, "/absent", "", 0)
	assert.ErrorIs(t, err, namespace.ErrNotFound)
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace()
	write(t, ns, "/blocks/aa", "1")

	require.NoError(t, ns.Delete(ctx, "/blocks/aa"))
	require.NoError(t, ns.Delete(ctx, "/blocks/aa"))
	require.NoError(t, ns.DeleteRecursive(ctx, "/blocks"))
	require.NoError(t, ns.DeleteRecursive(ctx, "/blocks"))
}

func TestCheckAccessAndUsage(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace()

	require.NoError(t, ns.CheckAccess(ctx, "/blocks"))

	write(t, ns, "/blocks/aa", "12")
	write(t, ns, "/blocks/bb", "345")
	count, bytes, err := ns.Usage(ctx, "/blocks")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, int64(5), bytes)
}

func TestCheckAccessReadOnly(t *testing.T) {
	ctx := context.Background()
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/blocks", 0700))
	ns := New(afero.NewReadOnlyFs(base))

	assert.ErrorIs(t, ns.CheckAccess(ctx, "/blocks"), namespace.ErrAccessDenied)
}
