// Package localfs implements a namespace backend over an afero filesystem.
//
// With afero.NewOsFs it serves a directory on local disk; with
// afero.NewMemMapFs it doubles as a fast test backend with real rename and
// exclusive-create semantics.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/blocklake/blocklake/pkg/namespace"
	"github.com/spf13/afero"
)

// Namespace is the afero-backed backend. Safe for concurrent use as long as
// the underlying afero.Fs is.
type Namespace struct {
	fs afero.Fs
}

// New creates a namespace over fs. Pass afero.NewBasePathFs to confine it to
// a directory.
func New(fs afero.Fs) *Namespace {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Namespace{fs: fs}
}

func (n *Namespace) String() string {
	return "file://" + n.fs.Name()
}

func (n *Namespace) StatEntry(ctx context.Context, path string) (*namespace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fi, err := n.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", path, namespace.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &namespace.Entry{
		Name:    filepath.Base(path),
		Path:    path,
		Dir:     fi.IsDir(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}, nil
}

func (n *Namespace) CreateIfAbsent(ctx context.Context, path string, perm os.FileMode) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := n.fs.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("ensuring directories for %q: %w", path, err)
		}
	}
	f, err := n.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("create %s: %w", path, namespace.ErrExists)
		}
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

func (n *Namespace) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := n.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", path, namespace.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// OpenReadRange serves ranged reads by seeking, satisfying
// namespace.RangeReader.
func (n *Namespace) OpenReadRange(ctx context.Context, path string, offset, length int64) (io.ReadCloser, error) {
	rc, err := n.OpenRead(ctx, path)
	if err != nil {
		return nil, err
	}
	f, ok := rc.(afero.File)
	if !ok {
		_ = rc.Close()
		return nil, fmt.Errorf("open %s: backing file is not seekable", path)
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("seek %s to %d: %w", path, offset, err)
		}
	}
	if length < 0 {
		return f, nil
	}
	return &limitedFile{Reader: io.LimitReader(f, length), file: f}, nil
}

type limitedFile struct {
	io.Reader
	file afero.File
}

func (l *limitedFile) Close() error {
	return l.file.Close()
}

func (n *Namespace) Rename(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := n.fs.Rename(src, dst); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("rename %s: %w", src, namespace.ErrNotFound)
		}
		return fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}
	return nil
}

func (n *Namespace) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := n.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (n *Namespace) DeleteRecursive(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := n.fs.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete recursive %s: %w", path, err)
	}
	return nil
}

func (n *Namespace) ListChildren(ctx context.Context, dir, startAfter string, limit int) ([]namespace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(n.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("list %s: %w", dir, namespace.ErrNotFound)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	entries := make([]namespace.Entry, 0, len(infos))
	for _, fi := range infos {
		if fi.Name() <= startAfter {
			continue
		}
		entries = append(entries, namespace.Entry{
			Name:    fi.Name(),
			Path:    filepath.Join(dir, fi.Name()),
			Dir:     fi.IsDir(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// CheckAccess ensures path exists as a directory and that a probe file can
// be created and removed inside it.
func (n *Namespace) CheckAccess(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := n.fs.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("access %s: %w", path, namespace.ErrAccessDenied)
	}
	probe, err := afero.TempFile(n.fs, path, ".access-")
	if err != nil {
		return fmt.Errorf("access %s: %w", path, namespace.ErrAccessDenied)
	}
	name := probe.Name()
	if _, err := probe.Write([]byte{0}); err != nil {
		_ = probe.Close()
		_ = n.fs.Remove(name)
		return fmt.Errorf("access %s: %w", path, namespace.ErrAccessDenied)
	}
	if err := probe.Close(); err != nil {
		_ = n.fs.Remove(name)
		return fmt.Errorf("access %s: %w", path, namespace.ErrAccessDenied)
	}
	if err := n.fs.Remove(name); err != nil {
		return fmt.Errorf("access %s: %w", path, namespace.ErrAccessDenied)
	}
	return nil
}

func (n *Namespace) Usage(ctx context.Context, path string) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	var count, bytes int64
	err := afero.Walk(n.fs, path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !fi.IsDir() {
			count++
			bytes += fi.Size()
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("usage %s: %w", path, err)
	}
	return count, bytes, nil
}
