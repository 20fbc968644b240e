// Directory enumeration: cursor-paginated, bounded by limit/after/before,
// cancellable per entry through the sink.
package remotens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blocklake/blocklake/pkg/blockstore"
	"github.com/blocklake/blocklake/pkg/namespace"
)

// entrySink receives one qualifying raw entry at a time. Returning false
// stops the enumeration immediately (consumer backpressure or cancellation).
type entrySink func(namespace.Entry) bool

// enumerator is the single-pass pagination state: the cursor advances to the
// last name of each fetched page. It is not resumable after consumption or
// an early stop.
type enumerator struct {
	ns       namespace.Namespace
	dir      string // root without its trailing separator, for ListChildren
	pageSize int

	cursor    string
	remaining int // entries still allowed by the query limit; -1 = unbounded
	before    string
}

func newEnumerator(ns namespace.Namespace, root string, q blockstore.ListQuery, pageSize int) *enumerator {
	remaining := -1
	if q.Limit > 0 {
		remaining = q.Limit
	}
	dir := strings.TrimSuffix(root, "/")
	if dir == "" {
		dir = "/"
	}
	return &enumerator{
		ns:        ns,
		dir:       dir,
		pageSize:  pageSize,
		cursor:    q.After,
		remaining: remaining,
		before:    q.Before,
	}
}

// run drives the enumeration until the limit is reached, a page comes back
// empty, the before bound is hit, or the sink declines. A missing directory
// is a vacuously empty result; any other remote error propagates.
func (e *enumerator) run(ctx context.Context, sink entrySink) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.remaining == 0 {
			return nil
		}

		size := e.pageSize
		if e.remaining > 0 && e.remaining < size {
			size = e.remaining
		}

		page, err := e.ns.ListChildren(ctx, e.dir, e.cursor, size)
		if err != nil {
			if errors.Is(err, namespace.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("listing %s after %q: %w", e.dir, e.cursor, err)
		}
		if len(page) == 0 {
			return nil
		}

		for _, entry := range page {
			// Names are hex digests, so name order is digest order and the
			// before bound cuts off everything from here on.
			if e.before != "" && entry.Name >= e.before {
				return nil
			}
			if !sink(entry) {
				return nil
			}
		}

		e.cursor = page[len(page)-1].Name
		if e.remaining > 0 {
			e.remaining -= len(page)
		}
	}
}
