// Write-side operations for the S3 namespace: conditional create, rename
// (copy+delete) and point deletes.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/blocklake/blocklake/pkg/namespace"
)

// isPreconditionFailed recognizes the HTTP 412 the If-None-Match conditional
// create reports when the key already exists.
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}

// conditionalWriter buffers the object body and uploads it on Close with an
// If-None-Match precondition so the create fails instead of overwriting.
type conditionalWriter struct {
	ns   *Namespace
	ctx  context.Context
	path string
	key  string
	buf  bytes.Buffer

	closeOnce sync.Once
	closeErr  error
}

func (w *conditionalWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *conditionalWriter) Close() error {
	w.closeOnce.Do(func() {
		_, err := w.ns.client.PutObject(w.ctx, &s3.PutObjectInput{
			Bucket:      aws.String(w.ns.bucket),
			Key:         aws.String(w.key),
			Body:        bytes.NewReader(w.buf.Bytes()),
			IfNoneMatch: aws.String("*"),
		})
		if err != nil {
			if isPreconditionFailed(err) {
				w.closeErr = fmt.Errorf("create %s: %w", w.path, namespace.ErrExists)
				return
			}
			w.closeErr = fmt.Errorf("create %s: %w", w.path, err)
		}
	})
	return w.closeErr
}

// CreateIfAbsent returns a writer whose Close performs the conditional
// upload. S3 has no open-exclusive, so the collision is detected at commit
// time rather than at open time; permission bits do not apply to objects and
// are ignored.
func (n *Namespace) CreateIfAbsent(ctx context.Context, p string, _ os.FileMode) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &conditionalWriter{ns: n, ctx: ctx, path: p, key: n.key(p)}, nil
}

// Rename copies src onto dst and deletes src. Not atomic; the block store's
// write pipeline tolerates this because a duplicate commit of the same
// content is byte-identical.
func (n *Namespace) Rename(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source := n.bucket + "/" + n.key(src)
	_, err := n.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(n.bucket),
		Key:        aws.String(n.key(dst)),
		CopySource: aws.String(url.PathEscape(source)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("rename %s: %w", src, namespace.ErrNotFound)
		}
		return fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}

	_, err = n.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(n.key(src)),
	})
	if err != nil {
		return fmt.Errorf("rename %s: removing source: %w", src, err)
	}
	return nil
}

// Delete removes the object at p. S3 treats deleting an absent key as
// success, which matches the namespace contract.
func (n *Namespace) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := n.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(n.bucket),
		Key:    aws.String(n.key(p)),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return nil
}
