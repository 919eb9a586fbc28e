package chain

import "txIndexer/internal/model"

// TransactionReceipt is a receipt execution observed in a specific block.
type TransactionReceipt struct {
	Receipt               ReceiptExecutionOutcome
	BlockHeight           uint64
	BlockTimestampNanosec model.Uint128
}

// IncompleteTransaction is a transaction whose receipts are still executing.
// Transaction is nil when it was included before tracking started.
type IncompleteTransaction struct {
	Hash            model.CryptoHash
	Transaction     *IndexerTransaction
	PendingReceipts map[model.CryptoHash]struct{}
	Receipts        []TransactionReceipt
}

// CompleteTransaction is a transaction whose receipts have all executed.
type CompleteTransaction struct {
	Transaction IndexerTransaction
	Receipts    []TransactionReceipt
}
