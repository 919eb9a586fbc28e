package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"txIndexer/internal/chain"
	"txIndexer/internal/model"
)

// Tracker follows transactions across blocks until every receipt they spawned has
// executed.
type Tracker struct {
	logger    *zap.Logger
	pending   map[model.CryptoHash]*chain.IncompleteTransaction
	byReceipt map[model.CryptoHash]model.CryptoHash
}

func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		logger:    logger,
		pending:   make(map[model.CryptoHash]*chain.IncompleteTransaction),
		byReceipt: make(map[model.CryptoHash]model.CryptoHash),
	}
}

// Pending returns the number of transactions still waiting for receipts.
func (t *Tracker) Pending() int {
	return len(t.pending)
}

// Process applies one block. With a nil handler the block only updates tracking
// state, which is how blocks before the start height are replayed.
func (t *Tracker) Process(ctx context.Context, block *chain.StreamerMessage, handler Handler) error {
	height := block.Height()
	timestamp := block.Block.Header.TimestampNanosec

	for _, shard := range block.Shards {
		if shard.Chunk == nil {
			continue
		}
		for i := range shard.Chunk.Transactions {
			if err := t.track(&shard.Chunk.Transactions[i], height); err != nil {
				return err
			}
		}
	}

	var completed []*chain.IncompleteTransaction
	for _, shard := range block.Shards {
		for _, outcome := range shard.ReceiptExecutionOutcomes {
			receipt := chain.TransactionReceipt{
				Receipt:               outcome,
				BlockHeight:           height,
				BlockTimestampNanosec: timestamp,
			}
			receiptID := outcome.Receipt.ReceiptID

			txHash, ok := t.byReceipt[receiptID]
			if !ok {
				if outcome.TxHash == nil {
					t.logger.Debug("receipt without transaction", zap.String("receipt_id", receiptID.String()), zap.Uint64("block_height", height))
					continue
				}
				txHash = *outcome.TxHash
			}

			tx, tracked := t.pending[txHash]
			if !tracked {
				if handler != nil {
					if err := handler.OnReceipt(ctx, receipt, chain.IncompleteTransaction{Hash: txHash}, block); err != nil {
						return fmt.Errorf("receipt %s: %w", receiptID, err)
					}
				}
				continue
			}

			delete(tx.PendingReceipts, receiptID)
			delete(t.byReceipt, receiptID)
			for _, next := range outcome.ExecutionOutcome.Outcome.ReceiptIDs {
				tx.PendingReceipts[next] = struct{}{}
				t.byReceipt[next] = txHash
			}
			tx.Receipts = append(tx.Receipts, receipt)

			if handler != nil {
				if err := handler.OnReceipt(ctx, receipt, *tx, block); err != nil {
					return fmt.Errorf("receipt %s: %w", receiptID, err)
				}
			}
			if len(tx.PendingReceipts) == 0 {
				// Later receipts naming this transaction in the same block are untracked.
				delete(t.pending, txHash)
				completed = append(completed, tx)
			}
		}
	}

	if handler == nil {
		return nil
	}
	for _, tx := range completed {
		complete := chain.CompleteTransaction{Transaction: *tx.Transaction, Receipts: tx.Receipts}
		if err := handler.OnTransaction(ctx, complete, block); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.Hash, err)
		}
	}

	return nil
}

func (t *Tracker) track(tx *chain.IndexerTransaction, height uint64) error {
	hash := tx.Transaction.Hash
	if hash.IsZero() {
		return fmt.Errorf("%w: block %d has a transaction without hash", chain.ErrMalformedBlock, height)
	}
	receiptIDs := tx.Outcome.ExecutionOutcome.Outcome.ReceiptIDs
	if len(receiptIDs) == 0 {
		// Never converted into a receipt, so it can never resolve.
		t.logger.Warn("transaction produced no receipts", zap.String("transaction_id", hash.String()), zap.Uint64("block_height", height))
		return nil
	}

	// Copied so pending transactions do not pin whole blocks in memory.
	owned := *tx
	incomplete := &chain.IncompleteTransaction{
		Hash:            hash,
		Transaction:     &owned,
		PendingReceipts: make(map[model.CryptoHash]struct{}, len(receiptIDs)),
	}
	for _, id := range receiptIDs {
		incomplete.PendingReceipts[id] = struct{}{}
		t.byReceipt[id] = hash
	}
	t.pending[hash] = incomplete
	return nil
}
