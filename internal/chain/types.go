package chain

import (
	"encoding/json"

	"txIndexer/internal/model"
)

// StreamerMessage is one block as served by neardata: the header plus every shard's
// chunk and receipt execution outcomes.
type StreamerMessage struct {
	Block  BlockView      `json:"block"`
	Shards []IndexerShard `json:"shards"`
}

// Height is a shortcut for the block header height.
func (m *StreamerMessage) Height() uint64 {
	return m.Block.Header.Height
}

type BlockView struct {
	Author string          `json:"author"`
	Header BlockHeaderView `json:"header"`
}

type BlockHeaderView struct {
	Height           uint64           `json:"height"`
	Hash             model.CryptoHash `json:"hash"`
	PrevHash         model.CryptoHash `json:"prev_hash"`
	TimestampNanosec model.Uint128    `json:"timestamp_nanosec"`
}

type IndexerShard struct {
	ShardID                  uint64                    `json:"shard_id"`
	Chunk                    *IndexerChunk             `json:"chunk"`
	ReceiptExecutionOutcomes []ReceiptExecutionOutcome `json:"receipt_execution_outcomes"`
}

type IndexerChunk struct {
	Author       string               `json:"author"`
	Transactions []IndexerTransaction `json:"transactions"`
}

// IndexerTransaction is a signed transaction together with the outcome of converting it
// into its first receipt.
type IndexerTransaction struct {
	Transaction SignedTransactionView `json:"transaction"`
	Outcome     TransactionOutcome    `json:"outcome"`
}

type TransactionOutcome struct {
	ExecutionOutcome ExecutionOutcomeWithID `json:"execution_outcome"`
}

type SignedTransactionView struct {
	SignerID    string            `json:"signer_id"`
	PublicKey   string            `json:"public_key"`
	Nonce       uint64            `json:"nonce"`
	ReceiverID  string            `json:"receiver_id"`
	Actions     []json.RawMessage `json:"actions"`
	PriorityFee *uint64           `json:"priority_fee,omitempty"`
	Signature   string            `json:"signature"`
	Hash        model.CryptoHash  `json:"hash"`
}

type ExecutionOutcomeWithID struct {
	ID      model.CryptoHash     `json:"id"`
	Outcome ExecutionOutcomeView `json:"outcome"`
}

type ExecutionOutcomeView struct {
	Logs       []string           `json:"logs"`
	ReceiptIDs []model.CryptoHash `json:"receipt_ids"`
	GasBurnt   uint64             `json:"gas_burnt"`
	ExecutorID string             `json:"executor_id"`
	Status     ExecutionStatus    `json:"status"`
}

// ReceiptExecutionOutcome pairs an executed receipt with its outcome. TxHash is the
// originating transaction, filled in by neardata.
type ReceiptExecutionOutcome struct {
	Receipt          ReceiptView            `json:"receipt"`
	ExecutionOutcome ExecutionOutcomeWithID `json:"execution_outcome"`
	TxHash           *model.CryptoHash      `json:"tx_hash"`
}

type ReceiptView struct {
	PredecessorID string           `json:"predecessor_id"`
	ReceiverID    string           `json:"receiver_id"`
	ReceiptID     model.CryptoHash `json:"receipt_id"`
}
