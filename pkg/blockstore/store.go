// Package blockstore defines the content-addressed block store contract.
//
// A Store keeps immutable blocks addressed by the hash of their content and
// exposes six operations: stat, list, get, put, delete and erase. Put is
// idempotent (storing a block that already exists performs no write), content
// is never updated in place, and listings stream in ascending digest order.
//
// This package supports the following implementations:
//   - remotens (adapter over a remote hierarchical namespace; the primary one)
//   - memory (testing and development)
//   - badgerdb (local persistent store)
package blockstore

import (
	"context"

	"github.com/blocklake/blocklake/pkg/block"
)

// ListQuery bounds and positions a listing.
type ListQuery struct {
	// Limit caps the number of returned entries. 0 means unbounded.
	Limit int

	// After is an exclusive lower cursor: only blocks whose hex name sorts
	// strictly after it are returned. Typically the last name of the
	// previous page.
	After string

	// Before is an exclusive upper bound: enumeration stops at the first
	// name that sorts at or after it.
	Before string
}

// ListResult is one element of a listing stream. Exactly one of Stats and
// Err is set; an Err element is terminal and the stream closes after it.
type ListResult struct {
	Stats *block.Stats
	Err   error
}

// Store is the six-operation block store contract. Implementations must be
// safe for concurrent use.
//
// Absence is not an error: Stat and Get return (nil, nil) for an id that was
// never stored, and Delete of an absent id succeeds.
type Store interface {
	// Stat resolves the stored metadata for id, or (nil, nil) when absent.
	Stat(ctx context.Context, id block.ID) (*block.Stats, error)

	// List streams stats for stored blocks matching q, in ascending hex
	// order, onto a bounded channel. The producer blocks when the consumer
	// is slow; cancelling ctx abandons the enumeration. On failure a
	// terminal ListResult carrying the error is delivered before close.
	List(ctx context.Context, q ListQuery) <-chan ListResult

	// Get returns a lazily readable block for id, or (nil, nil) when absent.
	Get(ctx context.Context, id block.ID) (*block.Block, error)

	// Put stores b unless a block with the same id already exists, in which
	// case the existing block is returned and no write happens.
	Put(ctx context.Context, b *block.Block) (*block.Block, error)

	// Delete removes id unconditionally. Absent ids are not an error.
	Delete(ctx context.Context, id block.ID) error

	// Erase removes every block in the store. Destructive; intended for
	// tests and maintenance.
	Erase(ctx context.Context) error
}

// LifecycleStore is a Store with an explicit start/stop lifecycle. The
// operations of Store require the started state and fail with ErrNotStarted
// outside it.
type LifecycleStore interface {
	Store

	// Start transitions Unstarted → Started: it acquires and verifies the
	// backing resources. A failed access check is fatal; the store stays
	// unstarted.
	Start(ctx context.Context) error

	// Stop releases the backing resources and transitions to Stopped.
	// Idempotent.
	Stop() error
}
