package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"txIndexer/internal/chain"
	"txIndexer/internal/config"
	"txIndexer/internal/indexer"
	"txIndexer/internal/metrics"
	"txIndexer/internal/pipeline"
	"txIndexer/internal/storage"
	"txIndexer/internal/storage/postgres"
	"txIndexer/internal/storage/redisstream"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "NEAR transaction and receipt indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run [start-block] [end-block]",
		Short: "Index blocks and publish transaction and receipt events",
		Args:  cobra.MaximumNArgs(2),
		RunE:  runIndexer,
	}

	runCmd.Flags().String("bus", "redis", "event bus (redis, jsonl)")
	runCmd.Flags().String("redis-url", "", "Redis URL (redis://host:port/db)")
	runCmd.Flags().String("jsonl-dir", "./data/streams", "output directory for the jsonl bus")
	runCmd.Flags().String("neardata-url", "", "neardata server URL, defaults by network")
	runCmd.Flags().String("rpc", "", "optional NEAR JSON-RPC URL used to verify the network")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means follow the chain")
	runCmd.Flags().Bool("testnet", false, "index testnet")
	runCmd.Flags().Int64("max-stream-size", 10000, "entries kept per channel")
	runCmd.Flags().String("discipline", "batched", "emission discipline (batched, immediate)")
	runCmd.Flags().Uint64("prefetch-blocks", 100, "blocks replayed before the start block")
	runCmd.Flags().Int("fetch-concurrency", 8, "blocks downloaded in parallel")
	runCmd.Flags().Duration("poll-interval", time.Second, "chain tip poll interval")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN, stores the resume point in Postgres")
	runCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	runCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	runCmd.Flags().String("metrics-addr", "", "Prometheus listen address, empty disables")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndexer(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := applyRangeArgs(&cfg, args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	discipline, err := pipeline.ParseDiscipline(cfg.Discipline)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	neardataURL := cfg.NeardataURL
	if neardataURL == "" {
		neardataURL = chain.MainnetNeardataURL
		if cfg.Testnet {
			neardataURL = chain.TestnetNeardataURL
		}
	}

	chainClient, err := chain.NewClient(ctx, neardataURL, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect chain: %w", err)
	}
	defer chainClient.Close()

	if cfg.RPCURL != "" {
		if err := checkNetwork(ctx, chainClient, cfg.Testnet); err != nil {
			return err
		}
	}

	bus, closeBus, err := openBus(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBus()

	txChannel := pipeline.ChannelName(pipeline.TransactionChannel, cfg.Testnet)
	receiptChannel := pipeline.ChannelName(pipeline.ReceiptChannel, cfg.Testnet)
	txEmitter, err := pipeline.NewEmitter(discipline, bus, txChannel, cfg.MaxStreamSize)
	if err != nil {
		return err
	}
	receiptEmitter, err := pipeline.NewEmitter(discipline, bus, receiptChannel, cfg.MaxStreamSize)
	if err != nil {
		return err
	}
	adapter := pipeline.NewAdapter(txEmitter, receiptEmitter, logger)

	resume, closeResume, err := openResumeStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeResume()

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:        cfg.FromBlock,
		ToBlock:          cfg.ToBlock,
		PrefetchBlocks:   cfg.PrefetchBlocks,
		FetchConcurrency: cfg.FetchConcurrency,
		PollInterval:     cfg.PollInterval,
		MaxRetries:       cfg.MaxRetries,
		RetryBackoff:     cfg.RetryBackoff,
	}, chainClient, adapter, resume, logger)

	logger.Info("indexer start",
		zap.String("neardata", neardataURL),
		zap.Bool("testnet", cfg.Testnet),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.String("bus", cfg.Bus),
		zap.String("discipline", string(discipline)),
		zap.Int64("max_stream_size", cfg.MaxStreamSize),
		zap.String("tx_channel", txChannel),
		zap.String("receipt_channel", receiptChannel),
		zap.Uint64("prefetch_blocks", cfg.PrefetchBlocks),
	)

	if cfg.MetricsAddr == "" {
		return runner.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()
	g.Go(func() error {
		return metrics.Serve(runCtx, cfg.MetricsAddr, logger)
	})
	g.Go(func() error {
		defer cancelRun()
		return runner.Run(runCtx)
	})
	return g.Wait()
}

// applyRangeArgs lets positional heights override the configured range.
func applyRangeArgs(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		from, err := indexer.ParseBlockHeight(args[0])
		if err != nil {
			return fmt.Errorf("start block: %w", err)
		}
		cfg.FromBlock = from
	}
	if len(args) > 1 {
		to, err := indexer.ParseBlockHeight(args[1])
		if err != nil {
			return fmt.Errorf("end block: %w", err)
		}
		cfg.ToBlock = to
	}
	return nil
}

func checkNetwork(ctx context.Context, client *chain.Client, testnet bool) error {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return err
	}
	want := "mainnet"
	if testnet {
		want = "testnet"
	}
	if chainID != want {
		return fmt.Errorf("rpc serves %s, expected %s", chainID, want)
	}
	return nil
}

func openBus(ctx context.Context, cfg config.Config) (storage.Bus, func(), error) {
	if cfg.Bus == "jsonl" {
		return storage.NewJsonlBus(cfg.JsonlDir), func() {}, nil
	}
	bus, err := redisstream.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return bus, func() { _ = bus.Close() }, nil
}

func openResumeStore(ctx context.Context, cfg config.Config) (indexer.ResumeStore, func(), error) {
	name := pipeline.ChannelName("indexer", cfg.Testnet)
	if cfg.PGDSN == "" {
		return indexer.NewCheckpointStore(cfg.Checkpoint, name, cfg.CheckpointEnabled), func() {}, nil
	}
	if !cfg.CheckpointEnabled {
		return nil, func() {}, nil
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return &postgres.ResumePoint{Store: store, Name: name}, store.Close, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
