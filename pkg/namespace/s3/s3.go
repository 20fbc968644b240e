// Package s3 implements a namespace backend over Amazon S3 or S3-compatible
// storage.
//
// S3 is a flat keyspace, so the hierarchical namespace contract is mapped
// onto it: paths become keys under an optional prefix, directories are
// common prefixes, rename is copy+delete, and conditional create uses the
// If-None-Match precondition on PutObject. Listing a missing directory is
// indistinguishable from listing an empty one; ListChildren returns an empty
// page in both cases.
package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/blocklake/blocklake/pkg/namespace"
)

// Namespace is the S3-backed namespace. Safe for concurrent use.
type Namespace struct {
	client            *s3.Client
	bucket            string
	keyPrefix         string
	deleteConcurrency int
}

// Config contains configuration for the S3 namespace.
type Config struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	KeyPrefix string

	// DeleteConcurrency bounds the number of parallel DeleteObjects batches
	// issued by DeleteRecursive (default 4).
	DeleteConcurrency int
}

// New creates an S3 namespace and verifies bucket access.
func New(ctx context.Context, cfg Config) (*Namespace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	concurrency := cfg.DeleteConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &Namespace{
		client:            cfg.Client,
		bucket:            cfg.Bucket,
		keyPrefix:         strings.TrimPrefix(cfg.KeyPrefix, "/"),
		deleteConcurrency: concurrency,
	}, nil
}

func (n *Namespace) String() string {
	return "s3://" + n.bucket + "/" + n.keyPrefix
}

// key maps a namespace path onto an object key under the configured prefix.
func (n *Namespace) key(path string) string {
	key := strings.TrimPrefix(path, "/")
	if n.keyPrefix != "" {
		return strings.TrimSuffix(n.keyPrefix, "/") + "/" + key
	}
	return key
}

// dirPrefix converts a directory's object key into a listing prefix. The
// bucket root maps to the empty prefix, never to "/": keys produced by key
// carry no leading slash, so a "/" prefix would match nothing.
func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(key, "/") + "/"
}

// CheckAccess verifies the bucket answers and that a probe object can be
// written and removed under path.
func (n *Namespace) CheckAccess(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probeKey := dirPrefix(n.key(path)) + ".access"
	_, err := n.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(probeKey),
		Body:   strings.NewReader("probe"),
	})
	if err != nil {
		return fmt.Errorf("access %s: %w", path, namespace.ErrAccessDenied)
	}
	_, err = n.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(probeKey),
	})
	if err != nil {
		return fmt.Errorf("access %s: %w", path, namespace.ErrAccessDenied)
	}
	return nil
}

// Usage walks the full listing under path summing object sizes.
func (n *Namespace) Usage(ctx context.Context, path string) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	prefix := dirPrefix(n.key(path))
	var count, bytes int64
	paginator := s3.NewListObjectsV2Paginator(n.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(n.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("usage %s: %w", path, err)
		}
		for _, obj := range page.Contents {
			count++
			if obj.Size != nil {
				bytes += *obj.Size
			}
		}
	}
	return count, bytes, nil
}
