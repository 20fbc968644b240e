// Package memory implements an in-memory namespace backend.
//
// It exists for tests and development. Beyond plain map storage it can
// simulate the eventual consistency of real remote namespaces: with a
// visibility lag configured, metadata for a just-written object stays stale
// for the first few stat calls, which is exactly the situation the block
// store's consistency prober has to cope with.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blocklake/blocklake/pkg/namespace"
)

// Config controls the simulated namespace behavior.
type Config struct {
	// VisibilityLag is the number of StatEntry calls after a completed write
	// during which the entry still reports a stale (zero) size. 0 disables
	// the simulation.
	VisibilityLag int

	// DenyAccess makes CheckAccess fail. Used to test fatal store startup.
	DenyAccess bool
}

type object struct {
	data    []byte
	modTime time.Time
	perm    os.FileMode
	pending bool // created but not yet closed
	stale   int  // remaining stats that report a stale size
}

// Namespace is the in-memory backend. Safe for concurrent use.
type Namespace struct {
	mu      sync.RWMutex
	objects map[string]*object
	cfg     Config
}

// New creates an empty in-memory namespace.
func New(cfg Config) *Namespace {
	return &Namespace{
		objects: make(map[string]*object),
		cfg:     cfg,
	}
}

func (n *Namespace) String() string {
	return "mem://"
}

func clean(p string) string {
	cleaned := path.Clean("/" + p)
	return cleaned
}

func (n *Namespace) StatEntry(ctx context.Context, p string) (*namespace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	p = clean(p)
	if obj, ok := n.objects[p]; ok {
		entry := &namespace.Entry{
			Name:    path.Base(p),
			Path:    p,
			Size:    int64(len(obj.data)),
			ModTime: obj.modTime,
		}
		if obj.pending {
			entry.Size = 0
			entry.ModTime = time.Time{}
		} else if obj.stale > 0 {
			obj.stale--
			entry.Size = 0
			entry.ModTime = time.Time{}
		}
		return entry, nil
	}
	if n.isDirLocked(p) {
		return &namespace.Entry{
			Name: path.Base(p),
			Path: p,
			Dir:  true,
		}, nil
	}
	return nil, fmt.Errorf("stat %s: %w", p, namespace.ErrNotFound)
}

// isDirLocked reports whether p is an (implicit) directory: the root, or a
// proper prefix of some stored object path.
func (n *Namespace) isDirLocked(p string) bool {
	if p == "/" {
		return true
	}
	prefix := p + "/"
	for key := range n.objects {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

type memWriter struct {
	ns   *Namespace
	path string
	buf  bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.ns.mu.Lock()
	defer w.ns.mu.Unlock()

	obj, ok := w.ns.objects[w.path]
	if !ok || !obj.pending {
		return fmt.Errorf("close %s: writer target vanished", w.path)
	}
	obj.data = w.buf.Bytes()
	obj.modTime = time.Now()
	obj.pending = false
	obj.stale = w.ns.cfg.VisibilityLag
	return nil
}

func (n *Namespace) CreateIfAbsent(ctx context.Context, p string, perm os.FileMode) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	p = clean(p)
	if _, ok := n.objects[p]; ok {
		return nil, fmt.Errorf("create %s: %w", p, namespace.ErrExists)
	}
	// The path is claimed as soon as the writer is opened, so a concurrent
	// create of the same landing name fails immediately.
	n.objects[p] = &object{perm: perm, pending: true}
	return &memWriter{ns: n, path: p}, nil
}

func (n *Namespace) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	p = clean(p)
	obj, ok := n.objects[p]
	if !ok || obj.pending {
		return nil, fmt.Errorf("open %s: %w", p, namespace.ErrNotFound)
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (n *Namespace) Rename(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	src, dst = clean(src), clean(dst)
	obj, ok := n.objects[src]
	if !ok || obj.pending {
		return fmt.Errorf("rename %s: %w", src, namespace.ErrNotFound)
	}
	delete(n.objects, src)
	n.objects[dst] = obj
	return nil
}

func (n *Namespace) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.objects, clean(p))
	return nil
}

func (n *Namespace) DeleteRecursive(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	p = clean(p)
	prefix := p + "/"
	if p == "/" {
		prefix = "/"
	}
	for key := range n.objects {
		if key == p || strings.HasPrefix(key, prefix) {
			delete(n.objects, key)
		}
	}
	return nil
}

func (n *Namespace) ListChildren(ctx context.Context, dir, startAfter string, limit int) ([]namespace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	dir = clean(dir)
	if _, isObject := n.objects[dir]; !isObject && !n.isDirLocked(dir) {
		return nil, fmt.Errorf("list %s: %w", dir, namespace.ErrNotFound)
	}

	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}

	seen := make(map[string]namespace.Entry)
	for key, obj := range n.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if name, _, nested := strings.Cut(rest, "/"); nested {
			// Deeper object: surface the intermediate directory once.
			seen[name] = namespace.Entry{Name: name, Path: prefix + name, Dir: true}
		} else {
			entry := namespace.Entry{
				Name:    name,
				Path:    key,
				Size:    int64(len(obj.data)),
				ModTime: obj.modTime,
			}
			if obj.pending || obj.stale > 0 {
				entry.Size = 0
				entry.ModTime = time.Time{}
			}
			seen[name] = entry
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		if name > startAfter {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	entries := make([]namespace.Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, seen[name])
	}
	return entries, nil
}

func (n *Namespace) CheckAccess(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.cfg.DenyAccess {
		return fmt.Errorf("access %s: %w", clean(p), namespace.ErrAccessDenied)
	}
	return nil
}

func (n *Namespace) Usage(ctx context.Context, p string) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	p = clean(p)
	prefix := p + "/"
	if p == "/" {
		prefix = "/"
	}
	var count, bytesTotal int64
	for key, obj := range n.objects {
		if key == p || strings.HasPrefix(key, prefix) {
			if obj.pending {
				continue
			}
			count++
			bytesTotal += int64(len(obj.data))
		}
	}
	return count, bytesTotal, nil
}
