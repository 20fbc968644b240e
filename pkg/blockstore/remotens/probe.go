// Consistency probing: remote metadata for a just-written object may lag
// behind the write, so the pipeline polls for the expected size before
// promoting a landing file.
package remotens

import (
	"context"
	"errors"
	"time"

	"github.com/blocklake/blocklake/internal/logger"
	"github.com/blocklake/blocklake/pkg/namespace"
)

// awaitVisible polls path until its observed size equals want, sleeping
// interval between attempts. It returns true as soon as the size matches and
// false once attempts are exhausted or ctx is cancelled. Exhaustion is not an
// error: the write itself already succeeded, callers proceed optimistically
// on degraded consistency.
func awaitVisible(ctx context.Context, ns namespace.Namespace, path string, want int64, attempts int, interval time.Duration) bool {
	for attempt := 1; attempt <= attempts; attempt++ {
		entry, err := ns.StatEntry(ctx, path)
		switch {
		case err == nil && entry.Size == want:
			return true
		case err != nil && errors.Is(err, context.Canceled):
			return false
		case err != nil && !errors.Is(err, namespace.ErrNotFound):
			// Transient remote trouble counts as "not visible yet".
			logger.Debug("probe %s attempt %d/%d: %v", path, attempt, attempts, err)
		}

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
	logger.Warn("degraded consistency: %s did not reach size %d after %d attempts, proceeding anyway",
		path, want, attempts)
	return false
}
