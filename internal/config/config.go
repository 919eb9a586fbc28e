package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Bus               string
	RedisURL          string
	JsonlDir          string
	NeardataURL       string
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	Testnet           bool
	MaxStreamSize     int64
	Discipline        string
	PrefetchBlocks    uint64
	FetchConcurrency  int
	PollInterval      time.Duration
	Checkpoint        string
	CheckpointEnabled bool
	PGDSN             string
	MaxRetries        int
	RetryBackoff      time.Duration
	MetricsAddr       string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("bus", "redis")
	v.SetDefault("jsonl-dir", "./data/streams")
	v.SetDefault("max-stream-size", int64(10000))
	v.SetDefault("discipline", "batched")
	v.SetDefault("prefetch-blocks", uint64(100))
	v.SetDefault("fetch-concurrency", 8)
	v.SetDefault("poll-interval", time.Second)
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Bus:               strings.ToLower(v.GetString("bus")),
		RedisURL:          v.GetString("redis-url"),
		JsonlDir:          v.GetString("jsonl-dir"),
		NeardataURL:       v.GetString("neardata-url"),
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Testnet:           v.GetBool("testnet"),
		MaxStreamSize:     v.GetInt64("max-stream-size"),
		Discipline:        v.GetString("discipline"),
		PrefetchBlocks:    v.GetUint64("prefetch-blocks"),
		FetchConcurrency:  v.GetInt("fetch-concurrency"),
		PollInterval:      v.GetDuration("poll-interval"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		PGDSN:             v.GetString("pg-dsn"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings needed to start a run.
func (c Config) Validate() error {
	switch c.Bus {
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("redis url is required")
		}
	case "jsonl":
		if c.JsonlDir == "" {
			return fmt.Errorf("jsonl dir is required")
		}
	default:
		return fmt.Errorf("unknown bus %q (want redis or jsonl)", c.Bus)
	}
	if c.MaxStreamSize <= 0 {
		return fmt.Errorf("max stream size must be greater than zero")
	}
	if c.ToBlock != 0 && c.FromBlock > c.ToBlock {
		return fmt.Errorf("from block must be <= to block")
	}
	if c.ToBlock != 0 && c.FromBlock == 0 {
		return fmt.Errorf("from block is required with a fixed range")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("fetch concurrency must be greater than zero")
	}
	return nil
}
