package indexer

import (
	"context"

	"txIndexer/internal/chain"
)

// Handler receives the callbacks for one block at a time: receipts, then the
// transactions that completed in the block, then exactly one OnBlockEnd. Callbacks for
// the next block start only after OnBlockEnd returned.
type Handler interface {
	OnReceipt(ctx context.Context, receipt chain.TransactionReceipt, tx chain.IncompleteTransaction, block *chain.StreamerMessage) error
	OnTransaction(ctx context.Context, tx chain.CompleteTransaction, block *chain.StreamerMessage) error
	OnBlockEnd(ctx context.Context, block *chain.StreamerMessage) error
}

// BlockSource provides blocks by height.
type BlockSource interface {
	Block(ctx context.Context, height uint64) (*chain.StreamerMessage, error)
	FinalBlockHeight(ctx context.Context) (uint64, error)
}

// ResumeStore persists the last block whose events were delivered.
type ResumeStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, height uint64) error
}
