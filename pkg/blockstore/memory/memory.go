// Package memory provides an in-memory block store.
//
// It is designed for testing and development: all blocks live in a map and
// vanish with the process. It implements the full lifecycle contract so the
// same wiring works against it and the persistent backends.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/blocklake/blocklake/pkg/block"
	"github.com/blocklake/blocklake/pkg/blockstore"
)

const (
	stateUnstarted = iota
	stateStarted
	stateStopped
)

type stored struct {
	data     []byte
	storedAt time.Time
}

// Store is a map-backed block store.
//
// Thread safety: all operations are protected by a sync.RWMutex. Content is
// copied on write and served through bytes.Reader on read, so callers can
// never race the store's own buffers.
type Store struct {
	mu     sync.RWMutex
	state  int
	blocks map[block.ID]stored

	// listBuffer sizes the List channel. Minimum 1 so a terminal error can
	// always be delivered without a receiver.
	listBuffer int
}

// Config tunes a memory store. The zero value is usable.
type Config struct {
	// ListBuffer is the List channel capacity.
	ListBuffer int
}

// New creates an empty, unstarted memory store.
func New(cfg Config) *Store {
	buffer := cfg.ListBuffer
	if buffer < 1 {
		buffer = 1
	}
	return &Store{
		blocks:     make(map[block.ID]stored),
		listBuffer: buffer,
	}
}

func (s *Store) String() string {
	return "memory block store"
}

// Start transitions the store into the started state. There are no backing
// resources to verify, so it only enforces the state machine.
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
	s.state = stateStarted
	return nil
}

// Stop releases the block map. Idempotent.
func (s *Store) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateStopped {
		return nil
	}
	s.state = stateStopped
	s.blocks = nil
	return nil
}

func (s *Store) started() error {
	if s.state != stateStarted {
		return blockstore.ErrNotStarted
	}
	return nil
}

func (s *Store) statsFor(id block.ID, obj stored) block.Stats {
	return block.Stats{
		ID:       id,
		Size:     int64(len(obj.data)),
		StoredAt: obj.storedAt,
		Location: "memory:" + id.Hex(),
	}
}

// Stat returns metadata for id, or (nil, nil) when absent.
func (s *Store) Stat(ctx context.Context, id block.ID) (*block.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.started(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obj, ok := s.blocks[id]
	if !ok {
		return nil, nil
	}
	stats := s.statsFor(id, obj)
	return &stats, nil
}

// Get returns a readable block for id, or (nil, nil) when absent. The
// returned block reads from a private copy, so later deletes do not affect
// open readers.
func (s *Store) Get(ctx context.Context, id block.ID) (*block.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.started(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obj, ok := s.blocks[id]
	if !ok {
		return nil, nil
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	open := func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return block.New(s.statsFor(id, obj), open, nil), nil
}

// Put stores b unless its id is already present.
func (s *Store) Put(ctx context.Context, b *block.Block) (*block.Block, error) {
	if b == nil || b.ID.IsZero() {
		return nil, block.ErrInvalidID
	}

	s.mu.Lock()
	if err := s.started(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if _, ok := s.blocks[b.ID]; ok {
		s.mu.Unlock()
		return s.Get(ctx, b.ID)
	}
	s.mu.Unlock()

	// Read the content outside the lock: Open may be arbitrarily slow.
	src, err := b.Open(ctx)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(src)
	if cerr := src.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.started(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if _, ok := s.blocks[b.ID]; !ok {
		s.blocks[b.ID] = stored{data: data, storedAt: time.Now()}
	}
	s.mu.Unlock()

	return s.Get(ctx, b.ID)
}

// Delete removes id. Absent ids are not an error.
func (s *Store) Delete(ctx context.Context, id block.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.started(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(s.blocks, id)
	return nil
}

// Erase drops every block.
func (s *Store) Erase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.started(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.blocks = make(map[block.ID]stored)
	return nil
}

// List streams stored blocks in ascending hex order. The snapshot is taken
// under the read lock; concurrent writes after the call do not appear.
func (s *Store) List(ctx context.Context, q blockstore.ListQuery) <-chan blockstore.ListResult {
	out := make(chan blockstore.ListResult, s.listBuffer)

	s.mu.RLock()
	if err := s.started(); err != nil {
		s.mu.RUnlock()
		out <- blockstore.ListResult{Err: err}
		close(out)
		return out
	}
	snapshot := make([]block.Stats, 0, len(s.blocks))
	for id, obj := range s.blocks {
		snapshot = append(snapshot, s.statsFor(id, obj))
	}
	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID.Hex() < snapshot[j].ID.Hex()
	})

	go func() {
		defer close(out)
		sent := 0
		for i := range snapshot {
			stats := snapshot[i]
			hex := stats.ID.Hex()
			if q.After != "" && hex <= q.After {
				continue
			}
			if q.Before != "" && hex >= q.Before {
				return
			}
			if q.Limit > 0 && sent >= q.Limit {
				return
			}
			select {
			case out <- blockstore.ListResult{Stats: &stats}:
				sent++
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
