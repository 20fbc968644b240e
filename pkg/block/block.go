package block

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// Stats is the transient metadata record for a stored block. Instances are
// built fresh per request from a remote lookup or a completed write; nothing
// caches them client-side.
type Stats struct {
	ID       ID
	Size     int64
	StoredAt time.Time

	// Location is an out-of-band reference to the backing object (a remote
	// path or a store-specific key). Informational only.
	Location string
}

// Opener opens an independent reader over a block's full content.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// RangeOpener opens an independent reader over [start, end). end < 0 means
// read to EOF from start.
type RangeOpener func(ctx context.Context, start, end int64) (io.ReadCloser, error)

// Block is an immutable content-addressed value. Content is never loaded
// eagerly: each Open/OpenRange call acquires a fresh reader, so concurrent
// reads over the same block do not interfere.
type Block struct {
	Stats

	open      Opener
	openRange RangeOpener
}

// New wraps stats and content openers into a Block. openRange may be nil, in
// which case ranged reads fall back to skipping and limiting a full reader.
func New(stats Stats, open Opener, openRange RangeOpener) *Block {
	return &Block{Stats: stats, open: open, openRange: openRange}
}

// FromBytes hashes data with the named algorithm and returns an in-memory
// block. Used by tests and the CLI; stores only ever read it.
func FromBytes(algo string, data []byte) (*Block, error) {
	id, err := Sum(algo, data)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	stats := Stats{ID: id, Size: int64(len(buf)), StoredAt: time.Now()}
	open := func(ctx context.Context) (io.ReadCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	return New(stats, open, nil), nil
}

// Open returns a fresh reader over the whole content.
func (b *Block) Open(ctx context.Context) (io.ReadCloser, error) {
	if b.open == nil {
		return nil, fmt.Errorf("block %s has no content source", b.ID)
	}
	return b.open(ctx)
}

// OpenRange returns a fresh reader over [start, end). A negative end reads to
// EOF. Without a native range opener the full stream is opened and start
// bytes are discarded.
func (b *Block) OpenRange(ctx context.Context, start, end int64) (*RangeReader, error) {
	if start < 0 {
		start = 0
	}
	if b.openRange != nil {
		rc, err := b.openRange(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return &RangeReader{r: rc, closer: rc}, nil
	}

	rc, err := b.Open(ctx)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		if _, err := io.CopyN(io.Discard, rc, start); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("seeking block %s to offset %d: %w", b.ID, start, err)
		}
	}
	var r io.Reader = rc
	if end >= 0 {
		r = io.LimitReader(rc, end-start)
	}
	return &RangeReader{r: r, closer: rc}, nil
}

// RangeReader is the ReadCloser handed out by OpenRange.
type RangeReader struct {
	r      io.Reader
	closer io.Closer
}

func (r *RangeReader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

func (r *RangeReader) Close() error {
	return r.closer.Close()
}
