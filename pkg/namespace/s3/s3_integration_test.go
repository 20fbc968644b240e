//go:build integration
// +build integration

package s3

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/blocklake/blocklake/pkg/namespace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestS3Namespace_Integration exercises the namespace against a real
// S3-compatible service (Localstack).
//
// Prerequisites:
//   - Localstack running on localhost:4566
//   - Run with: go test -tags=integration ./pkg/namespace/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3Namespace_Integration(t *testing.T) {
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	require.NoError(t, err)

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	bucket := "blocklake-ns-test"
	_, err = client.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		t.Logf("CreateBucket: %v (may already exist)", err)
	}

	ns, err := New(ctx, Config{Client: client, Bucket: bucket, KeyPrefix: "it"})
	require.NoError(t, err)
	require.NoError(t, ns.DeleteRecursive(ctx, "/blocks"))

	t.Run("CreateStatRead", func(t *testing.T) {
		w, err := ns.CreateIfAbsent(ctx, "/blocks/aa", 0600)
		require.NoError(t, err)
		_, err = w.Write([]byte("1234"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		entry, err := ns.StatEntry(ctx, "/blocks/aa")
		require.NoError(t, err)
		assert.Equal(t, int64(4), entry.Size)

		rc, err := ns.OpenRead(ctx, "/blocks/aa")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "1234", string(data))
	})

	t.Run("ConditionalCreateCollision", func(t *testing.T) {
		w, err := ns.CreateIfAbsent(ctx, "/blocks/aa", 0600)
		require.NoError(t, err)
		_, err = w.Write([]byte("other"))
		require.NoError(t, err)
		assert.ErrorIs(t, w.Close(), namespace.ErrExists)
	})

	t.Run("RangeRead", func(t *testing.T) {
		rc, err := ns.OpenReadRange(ctx, "/blocks/aa", 1, 2)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "23", string(data))
	})

	t.Run("Rename", func(t *testing.T) {
		require.NoError(t, ns.Rename(ctx, "/blocks/aa", "/blocks/bb"))
		_, err := ns.StatEntry(ctx, "/blocks/aa")
		assert.ErrorIs(t, err, namespace.ErrNotFound)
		entry, err := ns.StatEntry(ctx, "/blocks/bb")
		require.NoError(t, err)
		assert.Equal(t, int64(4), entry.Size)
	})

	t.Run("ListChildren", func(t *testing.T) {
		for _, name := range []string{"cc", "dd"} {
			w, err := ns.CreateIfAbsent(ctx, "/blocks/"+name, 0600)
			require.NoError(t, err)
			_, err = w.Write([]byte("x"))
			require.NoError(t, err)
			require.NoError(t, w.Close())
		}

		entries, err := ns.ListChildren(ctx, "/blocks", "", 0)
		require.NoError(t, err)
		require.Len(t, entries, 3) // bb, cc, dd
		assert.Equal(t, "bb", entries[0].Name)

		entries, err = ns.ListChildren(ctx, "/blocks", "bb", 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "cc", entries[0].Name)
	})

	t.Run("Usage", func(t *testing.T) {
		count, bytes, err := ns.Usage(ctx, "/blocks")
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.Equal(t, int64(6), bytes)
	})

	t.Run("DeleteRecursive", func(t *testing.T) {
		require.NoError(t, ns.DeleteRecursive(ctx, "/blocks"))
		entries, err := ns.ListChildren(ctx, "/blocks", "", 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
