//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/docsmith-ai/docsmith/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestS3Client(ctx context.Context, t *testing.T) (*S3Client, func()) {
	rc := testutil.NewRustFSContainer(ctx, t)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "docsmith-dumps",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))

	return client, func() { rc.Terminate(ctx) }
}

func TestS3Client_PutAndGetDump(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestS3Client(ctx, t)
	defer cleanup()

	dump := "==== File: main.go ====\npackage main\n"
	require.NoError(t, client.PutDump(ctx, "kubeflow/website", dump))

	got, err := client.GetDump(ctx, "kubeflow/website")
	require.NoError(t, err)
	assert.Equal(t, dump, got)

	meta, err := client.HeadDump(ctx, "kubeflow/website")
	require.NoError(t, err)
	assert.Equal(t, int64(len(dump)), meta.ContentLength)
}

func TestS3Client_PutDump_Overwrites(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestS3Client(ctx, t)
	defer cleanup()

	require.NoError(t, client.PutDump(ctx, "grpc/grpc-go", "first"))
	require.NoError(t, client.PutDump(ctx, "grpc/grpc-go", "second"))

	got, err := client.GetDump(ctx, "grpc/grpc-go")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestS3Client_DeleteDump(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newTestS3Client(ctx, t)
	defer cleanup()

	require.NoError(t, client.PutDump(ctx, "golang/go", "dump"))
	require.NoError(t, client.DeleteDump(ctx, "golang/go"))

	_, err := client.HeadDump(ctx, "golang/go")
	assert.Error(t, err)
}

func TestDumpKey(t *testing.T) {
	assert.Equal(t, "dumps/kubeflow/website/code.txt", DumpKey("kubeflow/website"))
}
