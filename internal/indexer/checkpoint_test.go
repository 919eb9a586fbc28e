package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "nested", "checkpoint.json"), "indexer", true)

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("expected empty checkpoint, got ok=%v err=%v", ok, err)
	}
	if err := store.Save(ctx, 124099142); err != nil {
		t.Fatalf("save: %v", err)
	}
	last, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || last != 124099142 {
		t.Fatalf("unexpected checkpoint %d (ok=%v)", last, ok)
	}
}

func TestCheckpointStoreRejectsOtherStream(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	if err := NewCheckpointStore(path, "indexer", true).Save(ctx, 124099142); err != nil {
		t.Fatalf("save: %v", err)
	}
	_, ok, err := NewCheckpointStore(path, "indexer_testnet", true).Load(ctx)
	if !errors.Is(err, ErrCheckpointMismatch) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if ok {
		t.Fatalf("mismatched checkpoint must not be reported")
	}
}

func TestCheckpointStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := NewCheckpointStore(path, "indexer", true).Load(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCheckpointStoreDisabled(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, "indexer", false)
	if err := store.Save(ctx, 10); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatalf("disabled store must not report a checkpoint")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("disabled store must not write a file")
	}
}
