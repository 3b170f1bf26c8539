package blob

import (
	"context"
	"path/filepath"
	infraFS "plantary/internal/infra/blob/fs"
	"testing"
)

func TestOpenDefaultsToFilesystem(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	t.Setenv(EnvDriver, "")
	t.Setenv(EnvFSRoot, root)
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fsStore, ok := store.(*infraFS.Store)
	if !ok {
		t.Fatalf("expected filesystem store, got %T", store)
	}
	if fsStore.Root() != root {
		t.Fatalf("expected root %s, got %s", root, fsStore.Root())
	}
}

func TestOpenMemory(t *testing.T) {
	t.Setenv(EnvDriver, "memory")
	store, err := Open(context.Background())
	if err != nil || store.Driver() != DriverMemory {
		t.Fatalf("expected memory store, got %v %v", store, err)
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv(EnvDriver, "s3")
	t.Setenv("PLANTARY_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestOpenS3FromEnv(t *testing.T) {
	t.Setenv(EnvDriver, "s3")
	t.Setenv("PLANTARY_BLOB_S3_BUCKET", "plantary-art")
	t.Setenv("PLANTARY_BLOB_S3_ENDPOINT", "http://127.0.0.1:9000")
	t.Setenv("PLANTARY_BLOB_S3_PATH_STYLE", "true")
	t.Setenv("AWS_ACCESS_KEY_ID", "minio")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "minio123")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverS3 {
		t.Fatalf("expected s3 driver, got %s", store.Driver())
	}
}

func TestOpenConfigUnknownDriver(t *testing.T) {
	if _, err := OpenConfig(context.Background(), Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
