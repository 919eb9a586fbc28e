package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"txIndexer/internal/chain"
	"txIndexer/internal/metrics"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock uint64
	// ToBlock of zero means follow the chain tip.
	ToBlock          uint64
	PrefetchBlocks   uint64
	FetchConcurrency int
	PollInterval     time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
}

// Runner walks blocks in height order and drives a Handler with their receipts and
// resolved transactions.
type Runner struct {
	cfg     RunConfig
	source  BlockSource
	handler Handler
	resume  ResumeStore
	tracker *Tracker
	logger  *zap.Logger
}

// NewRunner builds a Runner with its dependencies. resume may be nil.
func NewRunner(cfg RunConfig, source BlockSource, handler Handler, resume ResumeStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Runner{
		cfg:     cfg,
		source:  source,
		handler: handler,
		resume:  resume,
		tracker: NewTracker(logger),
		logger:  logger,
	}
}

// Run executes the indexing loop. It returns nil once a fixed range is done; in tail
// mode it only returns on error or cancellation.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("block source is nil")
	}
	if r.handler == nil {
		return fmt.Errorf("handler is nil")
	}

	tail := r.cfg.ToBlock == 0
	from := r.cfg.FromBlock

	if r.resume != nil {
		last, ok, err := r.resume.Load(ctx)
		if err != nil {
			return fmt.Errorf("load resume point: %w", err)
		}
		if ok && last >= from {
			from = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}

	if from == 0 {
		if !tail {
			return fmt.Errorf("from block is required with a fixed range")
		}
		tip, err := r.finalHeight(ctx)
		if err != nil {
			return err
		}
		from = tip
		r.logger.Info("start from chain tip", zap.Uint64("from", from))
	}

	if err := r.prefetch(ctx, from); err != nil {
		return err
	}

	if !tail {
		if from > r.cfg.ToBlock {
			r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", r.cfg.ToBlock))
			return nil
		}
		return r.processRange(ctx, from, r.cfg.ToBlock, true)
	}

	for {
		tip, err := r.finalHeight(ctx)
		if err != nil {
			return err
		}
		if tip >= from {
			if err := r.processRange(ctx, from, tip, true); err != nil {
				return err
			}
			from = tip + 1
			continue
		}

		timer := time.NewTimer(r.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// prefetch replays the blocks before from into the tracker so transactions included
// earlier can still resolve.
func (r *Runner) prefetch(ctx context.Context, from uint64) error {
	count := r.cfg.PrefetchBlocks
	if count == 0 || from == 0 {
		return nil
	}
	if count > from {
		count = from
	}
	start := from - count
	r.logger.Info("prefetch blocks", zap.Uint64("from", start), zap.Uint64("to", from-1))
	if err := r.processRange(ctx, start, from-1, false); err != nil {
		return fmt.Errorf("prefetch: %w", err)
	}
	return nil
}

func (r *Runner) processRange(ctx context.Context, from, to uint64, deliver bool) error {
	windows, err := SplitRange(from, to, uint64(r.cfg.FetchConcurrency))
	if err != nil {
		return err
	}

	for _, window := range windows {
		blocks, err := r.fetchWindow(ctx, window)
		if err != nil {
			return err
		}

		for i, block := range blocks {
			if err := ctx.Err(); err != nil {
				return err
			}
			height := window.From + uint64(i)
			if block == nil {
				r.logger.Debug("skipped block", zap.Uint64("block_height", height))
				continue
			}
			if block.Height() != height {
				return fmt.Errorf("%w: requested block %d, got %d", chain.ErrMalformedBlock, height, block.Height())
			}

			if !deliver {
				if err := r.tracker.Process(ctx, block, nil); err != nil {
					return fmt.Errorf("block %d: %w", height, err)
				}
				continue
			}

			if err := r.tracker.Process(ctx, block, r.handler); err != nil {
				return fmt.Errorf("block %d: %w", height, err)
			}
			if err := r.handler.OnBlockEnd(ctx, block); err != nil {
				return fmt.Errorf("block %d end: %w", height, err)
			}
			if r.resume != nil {
				if err := r.resume.Save(ctx, height); err != nil {
					return fmt.Errorf("save resume point %d: %w", height, err)
				}
			}
			metrics.LastBlockHeight.Set(float64(height))
		}

		if deliver {
			r.logger.Info("window complete",
				zap.Uint64("from", window.From),
				zap.Uint64("to", window.To),
				zap.Int("pending_transactions", r.tracker.Pending()),
			)
		}
	}

	return nil
}

// fetchWindow downloads all blocks of a window concurrently. Skipped heights are nil.
func (r *Runner) fetchWindow(ctx context.Context, window BlockRange) ([]*chain.StreamerMessage, error) {
	blocks := make([]*chain.StreamerMessage, window.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.FetchConcurrency)
	for i := range blocks {
		i := i
		height := window.From + uint64(i)
		g.Go(func() error {
			block, err := r.blockWithRetry(gctx, height)
			if err != nil {
				return fmt.Errorf("fetch block %d: %w", height, err)
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *Runner) blockWithRetry(ctx context.Context, height uint64) (*chain.StreamerMessage, error) {
	var block *chain.StreamerMessage
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		block, err = r.source.Block(ctx, height)
		if err != nil {
			if errors.Is(err, chain.ErrMalformedBlock) {
				return permanent(err)
			}
			r.logger.Warn("block fetch failed", zap.Error(err), zap.Uint64("block_height", height))
		}
		return err
	})
	return block, err
}

func (r *Runner) finalHeight(ctx context.Context) (uint64, error) {
	var tip uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		tip, err = r.source.FinalBlockHeight(ctx)
		if err != nil {
			r.logger.Warn("final block fetch failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get final block: %w", err)
	}
	return tip, nil
}
