// Read-side operations for the S3 namespace: stat, whole and ranged reads,
// and paged child listing.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/blocklake/blocklake/pkg/namespace"
)

// isNotFound recognizes the various shapes S3 reports a missing object in.
// GetObject returns NoSuchKey; HeadObject returns a bare 404 NotFound.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

func (n *Namespace) StatEntry(ctx context.Context, p string) (*namespace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := n.key(p)
	if key == "" {
		// Bucket root. It is not an object and always exists.
		return &namespace.Entry{Name: "/", Path: p, Dir: true}, nil
	}
	head, err := n.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		// No object; the path may still be a directory-like prefix.
		listing, lerr := n.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(n.bucket),
			Prefix:  aws.String(dirPrefix(key)),
			MaxKeys: aws.Int32(1),
		})
		if lerr != nil {
			return nil, fmt.Errorf("stat %s: %w", p, lerr)
		}
		if len(listing.Contents) == 0 {
			return nil, fmt.Errorf("stat %s: %w", p, namespace.ErrNotFound)
		}
		return &namespace.Entry{Name: path.Base(p), Path: p, Dir: true}, nil
	}

	entry := &namespace.Entry{
		Name: path.Base(p),
		Path: p,
	}
	if head.ContentLength != nil {
		entry.Size = *head.ContentLength
	}
	if head.LastModified != nil {
		entry.ModTime = *head.LastModified
	}
	return entry, nil
}

func (n *Namespace) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := n.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(n.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("open %s: %w", p, namespace.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return result.Body, nil
}

// OpenReadRange issues a byte-range GetObject, satisfying
// namespace.RangeReader supported natively by S3.
func (n *Namespace) OpenReadRange(ctx context.Context, p string, offset, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// S3 ranges are inclusive on both ends.
	rangeStr := fmt.Sprintf("bytes=%d-", offset)
	if length >= 0 {
		rangeStr = fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	}

	result, err := n.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(n.key(p)),
		Range:  aws.String(rangeStr),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("open %s: %w", p, namespace.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s range %s: %w", p, rangeStr, err)
	}
	return result.Body, nil
}

func (n *Namespace) ListChildren(ctx context.Context, dir, startAfter string, limit int) ([]namespace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := dirPrefix(n.key(dir))
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(n.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}
	if startAfter != "" {
		input.StartAfter = aws.String(prefix + startAfter)
	}
	if limit > 0 {
		input.MaxKeys = aws.Int32(int32(limit)) //nolint:gosec // page sizes are small
	}

	result, err := n.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]namespace.Entry, 0, len(result.Contents)+len(result.CommonPrefixes))
	for _, obj := range result.Contents {
		name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		entry := namespace.Entry{
			Name: name,
			Path: strings.TrimSuffix(dir, "/") + "/" + name,
		}
		if obj.Size != nil {
			entry.Size = *obj.Size
		}
		if obj.LastModified != nil {
			entry.ModTime = *obj.LastModified
		}
		entries = append(entries, entry)
	}
	for _, cp := range result.CommonPrefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
		if name == "" {
			continue
		}
		entries = append(entries, namespace.Entry{
			Name: name,
			Path: strings.TrimSuffix(dir, "/") + "/" + name,
			Dir:  true,
		})
	}

	// Contents and CommonPrefixes arrive as separate arrays; merge into one
	// ascending name order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
