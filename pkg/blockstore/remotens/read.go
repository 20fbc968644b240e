// Content readers: stateless openers bound to a remote path. Every call
// opens an independent remote stream, so concurrent reads over the same
// block never interfere.
package remotens

import (
	"context"
	"fmt"
	"io"

	"github.com/blocklake/blocklake/pkg/block"
	"github.com/blocklake/blocklake/pkg/namespace"
)

// openerFor returns a whole-content opener bound to path.
func openerFor(ns namespace.Namespace, path string) block.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		return ns.OpenRead(ctx, path)
	}
}

// rangeOpenerFor returns a range opener bound to path. Backends that serve
// byte ranges natively (namespace.RangeReader) are used directly; otherwise
// the full stream is opened and the prefix discarded. end < 0 reads to EOF.
func rangeOpenerFor(ns namespace.Namespace, path string) block.RangeOpener {
	return func(ctx context.Context, start, end int64) (io.ReadCloser, error) {
		if start < 0 {
			start = 0
		}
		length := int64(-1)
		if end >= 0 {
			length = end - start
			if length < 0 {
				return nil, fmt.Errorf("read %s: invalid range [%d, %d)", path, start, end)
			}
		}

		if rr, ok := ns.(namespace.RangeReader); ok {
			return rr.OpenReadRange(ctx, path, start, length)
		}

		rc, err := ns.OpenRead(ctx, path)
		if err != nil {
			return nil, err
		}
		if start > 0 {
			if _, err := io.CopyN(io.Discard, rc, start); err != nil {
				_ = rc.Close()
				return nil, fmt.Errorf("read %s: skipping to offset %d: %w", path, start, err)
			}
		}
		if length < 0 {
			return rc, nil
		}
		return &limitedReadCloser{r: io.LimitReader(rc, length), c: rc}, nil
	}
}

type limitedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedReadCloser) Close() error               { return l.c.Close() }
