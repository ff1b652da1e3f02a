package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gridiron/gridiron/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLocalUploadDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "tracking.parquet")
	writeFile(t, src, "payload")

	object := "season=2023/gameId=2023090700/tracking.parquet"
	if err := store.Upload(ctx, src, object); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := store.Exists(ctx, object)
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}

	dest := filepath.Join(t.TempDir(), "restored.parquet")
	if err := store.Download(ctx, object, dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "payload" {
		t.Errorf("restored content = %q, %v", data, err)
	}
}

func TestLocalDownloadMissingObject(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	err = store.Download(context.Background(), "nope/tracking.parquet", filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("err = %v, want ErrObjectNotFound", err)
	}
}

func TestLocalDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "f")
	writeFile(t, src, "x")
	if err := store.Upload(ctx, src, "a/b"); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, "a/b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "a/b"); err != nil {
		t.Errorf("second Delete should be a no-op: %v", err)
	}
	if exists, _ := store.Exists(ctx, "a/b"); exists {
		t.Error("object still exists after delete")
	}
}

func TestLocalListObjects(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(t.TempDir(), "f")
	writeFile(t, src, "x")
	for _, object := range []string{
		"season=2023/gameId=1/tracking.parquet",
		"season=2023/gameId=2/tracking.parquet",
		"season=2022/gameId=3/tracking.parquet",
	} {
		if err := store.Upload(ctx, src, object); err != nil {
			t.Fatal(err)
		}
	}

	objects, err := store.ListObjects(ctx, "season=2023")
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 2 {
		t.Errorf("ListObjects(season=2023) = %v", objects)
	}

	empty, err := store.ListObjects(ctx, "season=1999")
	if err != nil || len(empty) != 0 {
		t.Errorf("missing prefix should list empty, got %v, %v", empty, err)
	}
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	if store, err := NewFromConfig(ctx, config.ArchiveConfig{Type: config.ArchiveNone}); err != nil || store != nil {
		t.Errorf("none backend = %v, %v", store, err)
	}

	store, err := NewFromConfig(ctx, config.ArchiveConfig{
		Type: config.ArchiveLocal,
		Path: t.TempDir(),
	})
	if err != nil || store == nil {
		t.Errorf("local backend = %v, %v", store, err)
	}

	if _, err := NewFromConfig(ctx, config.ArchiveConfig{Type: "ftp"}); err == nil {
		t.Error("unknown backend type should error")
	}
}

func TestArchivePartition(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	poolRoot := t.TempDir()
	rel := filepath.Join("season=2023", "gameId=2023090700", "tracking.parquet")
	writeFile(t, filepath.Join(poolRoot, rel), "frames")
	writeFile(t, filepath.Join(poolRoot, "season=2023", "gameId=2023090700", "plays.bloom"), "filter")

	if err := ArchivePartition(ctx, store, poolRoot, rel, "plays.bloom"); err != nil {
		t.Fatalf("ArchivePartition: %v", err)
	}

	for _, object := range []string{
		"season=2023/gameId=2023090700/tracking.parquet",
		"season=2023/gameId=2023090700/plays.bloom",
	} {
		if exists, _ := store.Exists(ctx, object); !exists {
			t.Errorf("archived object missing: %s", object)
		}
	}
}

func TestArchivePartitionWithoutSidecar(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	poolRoot := t.TempDir()
	rel := filepath.Join("gameId=7", "tracking.parquet")
	writeFile(t, filepath.Join(poolRoot, rel), "frames")

	if err := ArchivePartition(ctx, store, poolRoot, rel, "plays.bloom"); err != nil {
		t.Fatalf("missing sidecar should not fail the archive: %v", err)
	}
	if exists, _ := store.Exists(ctx, "gameId=7/plays.bloom"); exists {
		t.Error("no sidecar should have been uploaded")
	}
}
