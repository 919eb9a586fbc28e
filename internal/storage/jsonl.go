package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type jsonlLine struct {
	BlockHeight uint64          `json:"block_height"`
	Event       json.RawMessage `json:"event"`
}

// JsonlBus keeps each channel in dir/<channel>.jsonl. Meant for local runs without Redis.
type JsonlBus struct {
	dir string
	mu  sync.Mutex
}

func NewJsonlBus(dir string) *JsonlBus {
	return &JsonlBus{dir: dir}
}

func (b *JsonlBus) path(channel string) string {
	return filepath.Join(b.dir, channel+".jsonl")
}

// Append writes entries as JSON lines.
func (b *JsonlBus) Append(_ context.Context, channel string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, entry := range entries {
		line, err := json.Marshal(jsonlLine{BlockHeight: entry.BlockHeight, Event: entry.Payload})
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	file, err := os.OpenFile(b.path(channel), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open channel file: %w", err)
	}
	defer file.Close()

	// One write call so a batch is never half appended by this process.
	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	return nil
}

// Trim rewrites the channel file keeping its newest maxLen lines.
func (b *JsonlBus) Trim(_ context.Context, channel string, maxLen int64) error {
	if maxLen < 0 {
		return fmt.Errorf("max length must not be negative")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	lines, err := b.readLines(channel)
	if err != nil {
		return err
	}
	if int64(len(lines)) <= maxLen {
		return nil
	}
	lines = lines[int64(len(lines))-maxLen:]

	var buf bytes.Buffer
	for _, line := range lines {
		buf.Write(line)
		buf.WriteByte('\n')
	}

	tmpPath := b.path(channel) + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write channel tmp: %w", err)
	}
	if err := os.Rename(tmpPath, b.path(channel)); err != nil {
		return fmt.Errorf("rename channel file: %w", err)
	}
	return nil
}

// Entries returns the entries currently retained on channel, oldest first.
func (b *JsonlBus) Entries(channel string) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines, err := b.readLines(channel)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		var decoded jsonlLine
		if err := json.Unmarshal(line, &decoded); err != nil {
			return nil, fmt.Errorf("parse channel line: %w", err)
		}
		entries = append(entries, Entry{BlockHeight: decoded.BlockHeight, Payload: decoded.Event})
	}
	return entries, nil
}

func (b *JsonlBus) readLines(channel string) ([][]byte, error) {
	file, err := os.Open(b.path(channel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open channel file: %w", err)
	}
	defer file.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan channel file: %w", err)
	}
	return lines, nil
}
