package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrCheckpointMismatch is returned when a checkpoint file was written for another stream.
var ErrCheckpointMismatch = errors.New("checkpoint belongs to another stream")

// Checkpoint is the on-disk resume point of one indexing stream.
type Checkpoint struct {
	Stream             string `json:"stream"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// CheckpointStore keeps the resume point of stream (for example "indexer_testnet") in a
// JSON file, so a mainnet checkpoint is never picked up by a testnet run.
type CheckpointStore struct {
	path    string
	stream  string
	enabled bool
}

func NewCheckpointStore(path, stream string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, stream: stream, enabled: enabled}
}

func (c *CheckpointStore) Load(_ context.Context) (uint64, bool, error) {
	if !c.enabled {
		return 0, false, nil
	}

	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read checkpoint %s: %w", c.path, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	if cp.Stream != c.stream {
		return 0, false, fmt.Errorf("%w: %s holds %q, want %q", ErrCheckpointMismatch, c.path, cp.Stream, c.stream)
	}
	return cp.LastProcessedBlock, true, nil
}

// Save replaces the checkpoint file through a temporary file and a rename.
func (c *CheckpointStore) Save(_ context.Context, height uint64) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(Checkpoint{
		Stream:             c.stream,
		LastProcessedBlock: height,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
