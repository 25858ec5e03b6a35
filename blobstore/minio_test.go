package blobstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance
// (MINIO_ENDPOINT, default localhost:9000). Skipped when unreachable.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	bucket := "test-imagegallery"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewMinioStore(client, bucket, t.Name())
	name := "blob-" + uuid.NewString() + ".bin"

	require.NoError(t, store.Put(ctx, name, []byte("hello minio")))
	assert.ErrorIs(t, store.Put(ctx, name, []byte("again")), ErrExists)

	data, err := store.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "hello minio", string(data))

	_, err = store.Get(ctx, "missing-"+name)
	assert.ErrorIs(t, err, ErrNotFound)
}
