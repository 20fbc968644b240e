// Package namespace defines the protocol a block store needs from a remote
// hierarchical object namespace.
//
// This package supports the following backends:
//   - memory (testing, with configurable metadata-visibility lag)
//   - localfs (afero-backed filesystem)
//   - s3 (Amazon S3 or compatible storage)
//
// Backends differ in their consistency guarantees: metadata for a
// just-written object may lag behind the write (eventual consistency), and
// not every backend offers a native rename or conditional create. The
// interface below captures the minimal contract the block store layers on
// top of; see pkg/blockstore/remotens for how the gaps are bridged.
package namespace

import (
	"context"
	"io"
	"os"
	"time"
)

// Entry is raw object metadata as reported by the remote namespace.
type Entry struct {
	// Name is the base name within the listed directory.
	Name string

	// Path is the full remote path of the entry.
	Path string

	// Dir reports whether the entry is a directory (or directory-like
	// prefix, for flat backends).
	Dir bool

	// Size is the object length in bytes. May be stale for a just-written
	// object on eventually consistent backends.
	Size int64

	// ModTime is the remote modification time. Zero when the backend has not
	// materialized it yet.
	ModTime time.Time
}

// Namespace is a hierarchical object namespace. Implementations must be safe
// for concurrent use by multiple goroutines.
type Namespace interface {
	// StatEntry resolves metadata for a single path. Returns ErrNotFound
	// when no object exists there.
	StatEntry(ctx context.Context, path string) (*Entry, error)

	// CreateIfAbsent opens a writer for a new object at path with the given
	// permission bits. It fails with ErrExists when an object is already
	// present; it never overwrites. The write is durable once the returned
	// writer is closed.
	CreateIfAbsent(ctx context.Context, path string, perm os.FileMode) (io.WriteCloser, error)

	// OpenRead opens an independent read stream over the whole object.
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)

	// Rename moves an object from src to dst, replacing any object at dst.
	Rename(ctx context.Context, src, dst string) error

	// Delete removes the object at path. Deleting an absent path is not an
	// error.
	Delete(ctx context.Context, path string) error

	// DeleteRecursive removes everything under path.
	DeleteRecursive(ctx context.Context, path string) error

	// ListChildren returns up to limit direct children of dir whose names
	// sort strictly after startAfter, in ascending name order. limit <= 0
	// means the backend's default page size. Returns ErrNotFound when dir
	// does not exist.
	ListChildren(ctx context.Context, dir, startAfter string, limit int) ([]Entry, error)

	// CheckAccess verifies that the namespace can be read and written under
	// path. Stores call it once at startup; failure is fatal to the store.
	CheckAccess(ctx context.Context, path string) error

	// Usage reports the aggregate object count and byte total under path.
	// Best effort; backends may walk the full listing to compute it.
	Usage(ctx context.Context, path string) (count int64, bytes int64, err error)

	// String describes the backend, e.g. "s3://bucket/prefix".
	String() string
}

// RangeReader is an optional capability for backends that can serve byte
// ranges natively. When a backend implements it, readers use it instead of
// discarding a prefix of the full stream.
type RangeReader interface {
	// OpenReadRange opens a stream over length bytes starting at offset.
	// length < 0 means read to EOF.
	OpenReadRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error)
}
