// Package badgerdb provides a block store persisted in BadgerDB.
//
// BadgerDB is an embedded key-value store with WAL-based crash recovery, which
// makes this backend suitable for a local, single-node block cache or archive
// that must survive restarts. Content and metadata live under separate key
// prefixes; see keys.go for the schema.
package badgerdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/blocklake/blocklake/internal/logger"
	"github.com/blocklake/blocklake/pkg/block"
	"github.com/blocklake/blocklake/pkg/blockstore"
)

const (
	stateUnstarted = iota
	stateStarted
	stateStopped
)

// Config configures a Badger-backed block store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory runs Badger without any files on disk. Used in tests.
	InMemory bool

	// BlockCacheMB sizes Badger's block cache. 0 picks a default of 64.
	BlockCacheMB int64

	// ListBuffer is the List channel capacity.
	ListBuffer int
}

// blockRecord is the JSON metadata value stored next to each block's content.
// JSON keeps the records debuggable with badger's command line tooling.
type blockRecord struct {
	ID       string    `json:"id"`
	Size     int64     `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

// Store is a LifecycleStore over a BadgerDB database. The database is opened
// at Start and closed at Stop.
//
// Thread safety: the state machine is guarded by a RWMutex; Badger handles
// concurrent transactions internally.
type Store struct {
	mu    sync.RWMutex
	state int
	db    *badger.DB
	cfg   Config
}

// New creates an unstarted store. No database files are touched until Start.
func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) String() string {
	if s.cfg.InMemory {
		return "badger block store (in-memory)"
	}
	return fmt.Sprintf("badger block store at %s", s.cfg.Path)
}

// Start opens the database. A failure to open (locked directory, corrupt
// manifest, bad permissions) is fatal and leaves the store unstarted.
func (s *Store) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateStarted:
		return blockstore.ErrAlreadyStarted
	case stateStopped:
		return blockstore.ErrStopped
	}

	opts := badger.DefaultOptions(s.cfg.Path)
	opts = opts.WithLoggingLevel(badger.WARNING)
	// Block content does not compress meaningfully (it is usually already
	// compressed or encrypted upstream).
	opts = opts.WithCompression(options.None)
	blockCacheMB := s.cfg.BlockCacheMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	if s.cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger at %s: %w", s.cfg.Path, err)
	}

	s.db = db
	s.state = stateStarted
	logger.Info("badger block store started (%s)", s.String())
	return nil
}

// Stop closes the database. Idempotent.
func (s *Store) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateStopped {
		return nil
	}
	s.state = stateStopped
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("closing badger: %w", err)
	}
	return nil
}

// handle returns the open database or ErrNotStarted.
func (s *Store) handle() (*badger.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateStarted {
		return nil, blockstore.ErrNotStarted
	}
	return s.db, nil
}

func statsFromRecord(rec blockRecord) (*block.Stats, error) {
	id, err := block.ParseID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt block record %q: %w", rec.ID, err)
	}
	return &block.Stats{
		ID:       id,
		Size:     rec.Size,
		StoredAt: rec.StoredAt,
		Location: "badger:" + id.Hex(),
	}, nil
}

// Stat returns metadata for id, or (nil, nil) when absent.
func (s *Store) Stat(ctx context.Context, id block.ID) (*block.Stats, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stats *block.Stats
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyMeta(id.Hex()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var rec blockRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decoding block record: %w", err)
			}
			stats, err = statsFromRecord(rec)
			return err
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", id, err)
	}
	return stats, nil
}

// Get returns a readable block for id, or (nil, nil) when absent. The content
// is copied out of the transaction so readers outlive it.
func (s *Store) Get(ctx context.Context, id block.ID) (*block.Block, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		stats *block.Stats
		data  []byte
	)
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyMeta(id.Hex()))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			var rec blockRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decoding block record: %w", err)
			}
			stats, err = statsFromRecord(rec)
			return err
		}); err != nil {
			return err
		}

		item, err = txn.Get(keyContent(id.Hex()))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	open := func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return block.New(*stats, open, nil), nil
}

// Put stores b unless its id is already present. Content and metadata are
// written in one transaction, so a crash never leaves one without the other.
func (s *Store) Put(ctx context.Context, b *block.Block) (*block.Block, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	if b == nil || b.ID.IsZero() {
		return nil, block.ErrInvalidID
	}

	existing, err := s.Stat(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debug("put %s: already present, skipping write", b.ID)
		return s.Get(ctx, b.ID)
	}

	src, err := b.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("put %s: opening content: %w", b.ID, err)
	}
	data, err := io.ReadAll(src)
	if cerr := src.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("put %s: reading content: %w", b.ID, err)
	}

	rec := blockRecord{
		ID:       b.ID.String(),
		Size:     int64(len(data)),
		StoredAt: time.Now(),
	}
	recBytes, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("put %s: encoding block record: %w", b.ID, err)
	}

	err = db.Update(func(txn *badger.Txn) error {
		// Recheck inside the transaction; a concurrent put may have landed.
		if _, err := txn.Get(keyMeta(b.ID.Hex())); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(keyContent(b.ID.Hex()), data); err != nil {
			return err
		}
		return txn.Set(keyMeta(b.ID.Hex()), recBytes)
	})
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", b.ID, err)
	}
	return s.Get(ctx, b.ID)
}

// Delete removes id. Absent ids are not an error.
func (s *Store) Delete(ctx context.Context, id block.ID) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keyMeta(id.Hex())); err != nil {
			return err
		}
		return txn.Delete(keyContent(id.Hex()))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Erase drops the whole database content.
func (s *Store) Erase(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.DropAll(); err != nil {
		return fmt.Errorf("erase: %w", err)
	}
	return nil
}

// List streams stored blocks in ascending digest order by iterating the
// metadata key prefix. The iteration runs in one read transaction; blocks
// written after the call may or may not appear.
func (s *Store) List(ctx context.Context, q blockstore.ListQuery) <-chan blockstore.ListResult {
	buffer := s.cfg.ListBuffer
	if buffer < 1 {
		// Room for a terminal error even before the consumer starts reading.
		buffer = 1
	}
	out := make(chan blockstore.ListResult, buffer)

	db, err := s.handle()
	if err != nil {
		out <- blockstore.ListResult{Err: err}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		err := db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(metaPrefix)
			it := txn.NewIterator(opts)
			defer it.Close()

			start := []byte(metaPrefix)
			if q.After != "" {
				start = keyMeta(q.After)
			}

			sent := 0
			for it.Seek(start); it.ValidForPrefix([]byte(metaPrefix)); it.Next() {
				if err := ctx.Err(); err != nil {
					return nil
				}
				item := it.Item()
				hex := strings.TrimPrefix(string(item.Key()), metaPrefix)
				if q.After != "" && hex <= q.After {
					continue
				}
				if q.Before != "" && hex >= q.Before {
					return nil
				}
				if q.Limit > 0 && sent >= q.Limit {
					return nil
				}

				var stats *block.Stats
				if err := item.Value(func(val []byte) error {
					var rec blockRecord
					if err := json.Unmarshal(val, &rec); err != nil {
						return fmt.Errorf("decoding block record: %w", err)
					}
					var err error
					stats, err = statsFromRecord(rec)
					return err
				}); err != nil {
					return err
				}

				select {
				case out <- blockstore.ListResult{Stats: stats}:
					sent++
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})
		if err != nil {
			select {
			case out <- blockstore.ListResult{Err: fmt.Errorf("list: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out
}
