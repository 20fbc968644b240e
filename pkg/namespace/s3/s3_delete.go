// Recursive deletion for the S3 namespace: paginate the prefix and issue
// batched DeleteObjects calls on a bounded worker pool.
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/blocklake/blocklake/internal/logger"
	"github.com/sourcegraph/conc/pool"
)

// maxDeleteBatch is the S3 limit on objects per DeleteObjects call.
const maxDeleteBatch = 1000

func (n *Namespace) DeleteRecursive(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := dirPrefix(n.key(p))

	workers := pool.New().
		WithMaxGoroutines(n.deleteConcurrency).
		WithContext(ctx).
		WithCancelOnError()

	var total int
	paginator := s3.NewListObjectsV2Paginator(n.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(n.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("delete recursive %s: %w", p, err)
		}

		for start := 0; start < len(page.Contents); start += maxDeleteBatch {
			end := min(start+maxDeleteBatch, len(page.Contents))
			batch := make([]types.ObjectIdentifier, 0, end-start)
			for _, obj := range page.Contents[start:end] {
				batch = append(batch, types.ObjectIdentifier{Key: obj.Key})
			}
			total += len(batch)

			workers.Go(func(ctx context.Context) error {
				result, err := n.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
					Bucket: aws.String(n.bucket),
					Delete: &types.Delete{
						Objects: batch,
						Quiet:   aws.Bool(true),
					},
				})
				if err != nil {
					return err
				}
				if len(result.Errors) > 0 {
					first := result.Errors[0]
					return fmt.Errorf("%d objects failed, first: %s %s",
						len(result.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
				}
				return nil
			})
		}
	}

	if err := workers.Wait(); err != nil {
		return fmt.Errorf("delete recursive %s: %w", p, err)
	}
	logger.Debug("s3: deleted %d objects under %s", total, p)
	return nil
}
