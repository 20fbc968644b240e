// Write pipeline: stage the content at a landing path with an exclusive
// create, probe for metadata visibility, then atomically promote the landing
// file onto its final path.
package remotens

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/blocklake/blocklake/internal/logger"
	"github.com/blocklake/blocklake/pkg/block"
	"github.com/blocklake/blocklake/pkg/namespace"
)

// LandingSuffix marks in-flight uploads. Landing files are never surfaced as
// blocks (the suffix is not valid hex).
const LandingSuffix = ".ATTEMPT"

// landingPerm is the fixed permission mode for landing files: owner
// read/write only.
const landingPerm = 0o600

// Put stores b under root if no block with its id exists yet.
//
// Storing a block that is already committed returns the existing block and
// performs no remote write. A genuinely new block creates exactly one remote
// object: the landing file, later renamed onto the target path.
//
// Two writers that both pass the existence check race to create the same
// landing name; the exclusive create fails the slower one. A perfect
// interleaving on backends without exclusive create (S3) ends in
// last-write-wins, which is harmless for content-addressed data: both
// writers carry byte-identical content for the same id.
func (s *Store) Put(ctx context.Context, b *block.Block) (*block.Block, error) {
	ns, err := s.handle()
	if err != nil {
		return nil, err
	}
	if b == nil || b.ID.IsZero() {
		return nil, fmt.Errorf("put: %w", block.ErrInvalidID)
	}

	target := pathFor(s.root, b.ID)

	existing, err := ns.StatEntry(ctx, target)
	switch {
	case err == nil && !existing.Dir:
		logger.Debug("put %s: already present, skipping write", b.ID)
		stats := block.Stats{
			ID:       b.ID,
			Size:     existing.Size,
			StoredAt: existing.ModTime,
			Location: target,
		}
		// A stat inside the consistency-lag window can still report a stale
		// zero size for a committed block; the caller's size is the truth.
		if stats.Size == 0 && b.Size > 0 {
			stats.Size = b.Size
		}
		if stats.StoredAt.IsZero() {
			stats.StoredAt = time.Now()
		}
		return block.New(stats, openerFor(ns, target), rangeOpenerFor(ns, target)), nil
	case err != nil && !errors.Is(err, namespace.ErrNotFound):
		return nil, fmt.Errorf("put %s: checking target: %w", b.ID, err)
	}

	landing := target + LandingSuffix
	if err := s.stage(ctx, ns, b, landing); err != nil {
		return nil, err
	}

	// Give the remote a bounded chance to report the full size before the
	// rename. Exhaustion only degrades the guarantee, it does not fail the
	// write.
	awaitVisible(ctx, ns, landing, b.Size, s.cfg.ProbeAttempts, s.cfg.ProbeInterval)

	if err := ns.Rename(ctx, landing, target); err != nil {
		return nil, fmt.Errorf("put %s: promoting landing file: %w", b.ID, err)
	}

	stats := block.Stats{
		ID:   b.ID,
		Size: b.Size,
		// Local completion time, not remote mtime: the remote's clock may
		// not have materialized during the consistency-lag window.
		StoredAt: time.Now(),
		Location: target,
	}
	return block.New(stats, openerFor(ns, target), rangeOpenerFor(ns, target)), nil
}

// stage streams b's content into an exclusively created landing file. On any
// failure the landing file is removed best-effort so a retry can claim the
// name again.
func (s *Store) stage(ctx context.Context, ns namespace.Namespace, b *block.Block, landing string) error {
	w, err := ns.CreateIfAbsent(ctx, landing, landingPerm)
	if err != nil {
		if errors.Is(err, namespace.ErrExists) {
			return fmt.Errorf("put %s: concurrent upload in flight: %w", b.ID, err)
		}
		return fmt.Errorf("put %s: creating landing file: %w", b.ID, err)
	}

	src, err := b.Open(ctx)
	if err != nil {
		_ = w.Close()
		s.discardLanding(ctx, ns, landing)
		return fmt.Errorf("put %s: opening content: %w", b.ID, err)
	}

	written, copyErr := io.Copy(w, src)
	if cerr := src.Close(); copyErr == nil {
		copyErr = cerr
	}
	if cerr := w.Close(); copyErr == nil {
		copyErr = cerr
	}
	if copyErr == nil && written != b.Size {
		copyErr = fmt.Errorf("wrote %d of %d bytes: %w", written, b.Size, block.ErrSizeMismatch)
	}
	if copyErr != nil {
		s.discardLanding(ctx, ns, landing)
		return fmt.Errorf("put %s: writing landing file: %w", b.ID, copyErr)
	}
	return nil
}

func (s *Store) discardLanding(ctx context.Context, ns namespace.Namespace, landing string) {
	if err := ns.Delete(ctx, landing); err != nil {
		logger.Warn("leaving stray landing file %s: %v", landing, err)
	}
}
