package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"txIndexer/internal/chain"
)

// ErrCallbackOrder is returned when callbacks arrive out of block order.
var ErrCallbackOrder = errors.New("callback out of block order")

type blockState uint8

const (
	stateIdle blockState = iota
	stateAwaitingReceipts
	stateAwaitingBlockEnd
)

func (s blockState) String() string {
	switch s {
	case stateAwaitingReceipts:
		return "awaiting_receipts"
	case stateAwaitingBlockEnd:
		return "awaiting_block_end"
	default:
		return "idle"
	}
}

// Adapter turns chain callbacks into transaction and receipt events. It holds at most
// one open block: the first callback for a height opens it, OnBlockEnd flushes both
// channels and closes it. After a failed flush the adapter rejects every callback.
type Adapter struct {
	transactions Emitter
	receipts     Emitter
	logger       *zap.Logger

	state         blockState
	height        uint64
	lastCompleted uint64
	hasCompleted  bool
}

func NewAdapter(transactions, receipts Emitter, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		transactions: transactions,
		receipts:     receipts,
		logger:       logger,
	}
}

func (a *Adapter) OnReceipt(ctx context.Context, receipt chain.TransactionReceipt, tx chain.IncompleteTransaction, block *chain.StreamerMessage) error {
	if err := a.open(block); err != nil {
		return err
	}
	event := BuildReceiptEvent(receipt, tx)
	if err := a.receipts.Emit(ctx, a.height, event); err != nil {
		return fmt.Errorf("emit receipt %s: %w", event.ReceiptID, err)
	}
	return nil
}

func (a *Adapter) OnTransaction(ctx context.Context, tx chain.CompleteTransaction, block *chain.StreamerMessage) error {
	if err := a.open(block); err != nil {
		return err
	}
	event, err := BuildTransactionEvent(tx, block)
	if err != nil {
		return err
	}
	if err := a.transactions.Emit(ctx, a.height, event); err != nil {
		return fmt.Errorf("emit transaction %s: %w", event.TransactionID, err)
	}
	return nil
}

func (a *Adapter) OnBlockEnd(ctx context.Context, block *chain.StreamerMessage) error {
	if err := a.open(block); err != nil {
		return err
	}
	height := a.height
	a.state = stateAwaitingBlockEnd

	if err := a.transactions.Flush(ctx, height); err != nil {
		return fmt.Errorf("flush transactions for block %d: %w", height, err)
	}
	if err := a.receipts.Flush(ctx, height); err != nil {
		return fmt.Errorf("flush receipts for block %d: %w", height, err)
	}

	a.state = stateIdle
	a.lastCompleted = height
	a.hasCompleted = true
	a.logger.Debug("block flushed", zap.Uint64("block_height", height))
	return nil
}

// open checks that block may receive callbacks now, opening it when idle.
func (a *Adapter) open(block *chain.StreamerMessage) error {
	if block == nil {
		return fmt.Errorf("%w: nil block", ErrCallbackOrder)
	}
	height := block.Height()

	switch a.state {
	case stateIdle:
		if a.hasCompleted && height <= a.lastCompleted {
			return fmt.Errorf("%w: block %d after completed block %d", ErrCallbackOrder, height, a.lastCompleted)
		}
		a.state = stateAwaitingReceipts
		a.height = height
		return nil
	case stateAwaitingReceipts:
		if height != a.height {
			return fmt.Errorf("%w: block %d while block %d is open", ErrCallbackOrder, height, a.height)
		}
		return nil
	default:
		return fmt.Errorf("%w: block %d while block %d is %s", ErrCallbackOrder, height, a.height, a.state)
	}
}
