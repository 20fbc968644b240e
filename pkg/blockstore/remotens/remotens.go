// Package remotens adapts a remote hierarchical namespace into a
// content-addressed block store.
//
// Blocks live as flat files under a root directory, named by the lowercase
// hex of their digest. The substrate is assumed to be eventually consistent
// and to offer no atomic create-without-overwrite beyond what the namespace
// backend provides, so writes go through a landing file that is promoted by
// rename after a bounded consistency probe (see write.go and probe.go).
//
// The store has an explicit lifecycle: Unstarted → Started → Stopped. Start
// verifies read/write access on the root, which is fatal when denied;
// operations other than Start/Stop require the started state.
package remotens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blocklake/blocklake/internal/logger"
	"github.com/blocklake/blocklake/pkg/block"
	"github.com/blocklake/blocklake/pkg/blockstore"
	"github.com/blocklake/blocklake/pkg/namespace"
)

type state int

const (
	stateUnstarted state = iota
	stateStarted
	stateStopped
)

// Config tunes the adapter. The zero value gets sensible defaults applied by
// New.
type Config struct {
	// Root is the directory all blocks live under. Normalized to start and
	// end with a path separator. Default "/".
	Root string

	// ProbeAttempts and ProbeInterval tune the consistency probe that runs
	// before a landing file is promoted. Defaults: 5 attempts, 200ms apart.
	// Empirically chosen; adjust per remote service.
	ProbeAttempts int
	ProbeInterval time.Duration

	// PageSize is the number of entries requested per remote listing call.
	// Default 100.
	PageSize int

	// ListBuffer is the capacity of the channel List streams into. The
	// producer blocks when the consumer is slower than the enumeration.
	// Default 16.
	ListBuffer int

	// CheckSummary logs the aggregate object count and byte total under
	// root at startup.
	CheckSummary bool
}

func (c Config) withDefaults() Config {
	if c.Root == "" {
		c.Root = "/"
	}
	if c.ProbeAttempts <= 0 {
		c.ProbeAttempts = 5
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = 200 * time.Millisecond
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.ListBuffer <= 0 {
		c.ListBuffer = 16
	}
	return c
}

// Store is the remote-namespace block store. It implements
// blockstore.LifecycleStore and is safe for concurrent use: the namespace
// handle is shared read-only across operations once Start completes.
type Store struct {
	cfg  Config
	root string

	mu    sync.RWMutex
	state state
	ns    namespace.Namespace
}

// New wraps ns into a block store rooted at cfg.Root. The store must be
// started before use.
func New(ns namespace.Namespace, cfg Config) *Store {
	cfg = cfg.withDefaults()
	return &Store{
		cfg:  cfg,
		root: normalizeRoot(cfg.Root),
		ns:   ns,
	}
}

func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ns == nil {
		return "remotens:" + s.root
	}
	return s.ns.String() + s.root
}

// Start verifies read/write access on the root and transitions the store to
// Started. Access denial is fatal: the store stays unstarted.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateStarted:
		return blockstore.ErrAlreadyStarted
	case stateStopped:
		return blockstore.ErrStopped
	}

	if err := s.ns.CheckAccess(ctx, s.rootDir()); err != nil {
		return fmt.Errorf("starting store at %s: %w", s.root, err)
	}

	if s.cfg.CheckSummary {
		count, bytes, err := s.ns.Usage(ctx, s.rootDir())
		if err != nil {
			logger.Warn("usage summary for %s unavailable: %v", s.root, err)
		} else {
			logger.Info("store %s holds %d objects, %d bytes", s.root, count, bytes)
		}
	}

	s.state = stateStarted
	logger.Debug("store started at %s%s", s.ns.String(), s.root)
	return nil
}

// Stop releases the namespace handle and transitions to Stopped. Idempotent;
// a stopped store cannot be restarted.
func (s *Store) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateStopped {
		return nil
	}
	s.state = stateStopped
	s.ns = nil
	logger.Debug("store stopped at %s", s.root)
	return nil
}

// handle returns the shared namespace, failing outside the started state.
func (s *Store) handle() (namespace.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateStarted {
		return nil, blockstore.ErrNotStarted
	}
	return s.ns, nil
}

// rootDir is the root without its trailing separator, the form ListChildren
// and DeleteRecursive expect.
func (s *Store) rootDir() string {
	dir := strings.TrimSuffix(s.root, "/")
	if dir == "" {
		return "/"
	}
	return dir
}

// Stat resolves the stored metadata for id. Absence is (nil, nil); only
// genuine remote faults surface as errors.
func (s *Store) Stat(ctx context.Context, id block.ID) (*block.Stats, error) {
	ns, err := s.handle()
	if err != nil {
		return nil, err
	}

	target := pathFor(s.root, id)
	entry, err := ns.StatEntry(ctx, target)
	if err != nil {
		if errors.Is(err, namespace.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", id, err)
	}
	if entry.Dir {
		// A directory squatting on a block name is not a block.
		return nil, nil
	}
	return &block.Stats{
		ID:       id,
		Size:     entry.Size,
		StoredAt: entry.ModTime,
		Location: target,
	}, nil
}

// Get returns a lazily readable block for id, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, id block.ID) (*block.Block, error) {
	ns, err := s.handle()
	if err != nil {
		return nil, err
	}

	stats, err := s.Stat(ctx, id)
	if err != nil || stats == nil {
		return nil, err
	}
	target := pathFor(s.root, id)
	return block.New(*stats, openerFor(ns, target), rangeOpenerFor(ns, target)), nil
}

// Delete removes id's object unconditionally. Absent ids are not an error.
func (s *Store) Delete(ctx context.Context, id block.ID) error {
	ns, err := s.handle()
	if err != nil {
		return err
	}
	if err := ns.Delete(ctx, pathFor(s.root, id)); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Erase removes everything under root, blocks or not. Destructive; intended
// for tests and maintenance.
func (s *Store) Erase(ctx context.Context) error {
	ns, err := s.handle()
	if err != nil {
		return err
	}
	if err := ns.DeleteRecursive(ctx, s.rootDir()); err != nil {
		return fmt.Errorf("erasing %s: %w", s.root, err)
	}
	return nil
}

// List streams stats for stored blocks matching q in ascending hex order.
//
// The enumeration runs on a background goroutine feeding a channel of
// capacity Config.ListBuffer; a slow consumer blocks the producer, which is
// the only flow control. Only file entries with valid digest names surface;
// directories, landing files and foreign objects are filtered out. An
// enumeration failure is delivered as a terminal ListResult before close.
func (s *Store) List(ctx context.Context, q blockstore.ListQuery) <-chan blockstore.ListResult {
	out := make(chan blockstore.ListResult, s.cfg.ListBuffer)

	ns, err := s.handle()
	if err != nil {
		out <- blockstore.ListResult{Err: err}
		close(out)
		return out
	}

	go func() {
		defer close(out)

		sink := func(entry namespace.Entry) bool {
			if entry.Dir {
				return true
			}
			id, ok := idForPath(s.root, entry.Path)
			if !ok {
				return true
			}
			result := blockstore.ListResult{Stats: &block.Stats{
				ID:       id,
				Size:     entry.Size,
				StoredAt: entry.ModTime,
				Location: entry.Path,
			}}
			select {
			case out <- result:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if err := newEnumerator(ns, s.root, q, s.cfg.PageSize).run(ctx, sink); err != nil {
			select {
			case out <- blockstore.ListResult{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out
}
