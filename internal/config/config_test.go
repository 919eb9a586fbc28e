package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bus != "redis" || cfg.MaxStreamSize != 10000 || cfg.Discipline != "batched" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PrefetchBlocks != 100 || cfg.PollInterval != time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "indexer.yaml")
	content := "redis-url: redis://file:6379/0\nmax-stream-size: 500\ntestnet: true\ndiscipline: immediate\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("INDEXER_MAX_STREAM_SIZE", "700")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("redis-url", "", "")
	flags.Uint64("from", 0, "")
	if err := flags.Parse([]string{"--redis-url=redis://flag:6379/1", "--from=124099140"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisURL != "redis://flag:6379/1" {
		t.Fatalf("flag should win, got %s", cfg.RedisURL)
	}
	if cfg.MaxStreamSize != 700 {
		t.Fatalf("env should beat file, got %d", cfg.MaxStreamSize)
	}
	if !cfg.Testnet || cfg.Discipline != "immediate" {
		t.Fatalf("file values missing: %+v", cfg)
	}
	if cfg.FromBlock != 124099140 {
		t.Fatalf("from mismatch: %d", cfg.FromBlock)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Bus: "redis", RedisURL: "redis://localhost:6379", MaxStreamSize: 10, FetchConcurrency: 1}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Config{
		{Bus: "redis", MaxStreamSize: 10, FetchConcurrency: 1},
		{Bus: "kafka", MaxStreamSize: 10, FetchConcurrency: 1},
		{Bus: "jsonl", JsonlDir: "x", MaxStreamSize: 0, FetchConcurrency: 1},
		{Bus: "jsonl", JsonlDir: "x", MaxStreamSize: 10, FetchConcurrency: 1, FromBlock: 5, ToBlock: 4},
		{Bus: "jsonl", JsonlDir: "x", MaxStreamSize: 10, FetchConcurrency: 1, ToBlock: 4},
		{Bus: "jsonl", JsonlDir: "x", MaxStreamSize: 10},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
