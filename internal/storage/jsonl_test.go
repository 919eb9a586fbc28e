package storage

import (
	"context"
	"fmt"
	"testing"
)

func TestJsonlBusAppendAndTrim(t *testing.T) {
	bus := NewJsonlBus(t.TempDir())
	ctx := context.Background()

	for height := uint64(1); height <= 5; height++ {
		entry := Entry{BlockHeight: height, Payload: []byte(fmt.Sprintf(`{"n":%d}`, height))}
		if err := bus.Append(ctx, "tx_receipt", []Entry{entry}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := bus.Trim(ctx, "tx_receipt", 3); err != nil {
		t.Fatalf("trim: %v", err)
	}

	entries, err := bus.Entries("tx_receipt")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		want := uint64(i + 3)
		if entry.BlockHeight != want {
			t.Fatalf("entry %d height %d, want %d", i, entry.BlockHeight, want)
		}
		if string(entry.Payload) != fmt.Sprintf(`{"n":%d}`, want) {
			t.Fatalf("entry %d payload %s", i, entry.Payload)
		}
	}
}

func TestJsonlBusTrimMissingChannel(t *testing.T) {
	bus := NewJsonlBus(t.TempDir())
	if err := bus.Trim(context.Background(), "tx_transaction", 10); err != nil {
		t.Fatalf("trim missing channel: %v", err)
	}
	entries, err := bus.Entries("tx_transaction")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}
