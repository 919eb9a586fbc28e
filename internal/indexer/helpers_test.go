package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"txIndexer/internal/chain"
	"txIndexer/internal/model"
)

func hashOf(label string) model.CryptoHash {
	var h model.CryptoHash
	copy(h[:], label)
	return h
}

func block(height uint64, txs []chain.IndexerTransaction, outcomes ...chain.ReceiptExecutionOutcome) *chain.StreamerMessage {
	return &chain.StreamerMessage{
		Block: chain.BlockView{Header: chain.BlockHeaderView{
			Height:           height,
			TimestampNanosec: model.NewUint128(height * 1_000_000_000),
		}},
		Shards: []chain.IndexerShard{{
			Chunk:                    &chain.IndexerChunk{Transactions: txs},
			ReceiptExecutionOutcomes: outcomes,
		}},
	}
}

func transaction(hash string, receipts ...string) chain.IndexerTransaction {
	ids := make([]model.CryptoHash, 0, len(receipts))
	for _, r := range receipts {
		ids = append(ids, hashOf(r))
	}
	return chain.IndexerTransaction{
		Transaction: chain.SignedTransactionView{
			SignerID:   "alice.near",
			ReceiverID: "bob.near",
			Actions:    []json.RawMessage{json.RawMessage(`"CreateAccount"`)},
			Hash:       hashOf(hash),
		},
		Outcome: chain.TransactionOutcome{ExecutionOutcome: chain.ExecutionOutcomeWithID{
			ID:      hashOf(hash),
			Outcome: chain.ExecutionOutcomeView{ReceiptIDs: ids},
		}},
	}
}

func outcome(receipt string, txHash string, spawned ...string) chain.ReceiptExecutionOutcome {
	ids := make([]model.CryptoHash, 0, len(spawned))
	for _, s := range spawned {
		ids = append(ids, hashOf(s))
	}
	o := chain.ReceiptExecutionOutcome{
		Receipt: chain.ReceiptView{ReceiptID: hashOf(receipt), PredecessorID: "alice.near", ReceiverID: "bob.near"},
		ExecutionOutcome: chain.ExecutionOutcomeWithID{
			ID: hashOf(receipt),
			Outcome: chain.ExecutionOutcomeView{
				ReceiptIDs: ids,
				ExecutorID: "bob.near",
				Status:     chain.ExecutionStatus{Kind: chain.StatusSuccessValue},
			},
		},
	}
	if txHash != "" {
		h := hashOf(txHash)
		o.TxHash = &h
	}
	return o
}

// recorder is a Handler that logs every callback as a string.
type recorder struct {
	calls   []string
	failAt  string
	failErr error
}

func (r *recorder) record(call string) error {
	r.calls = append(r.calls, call)
	if r.failAt == call {
		return r.failErr
	}
	return nil
}

func (r *recorder) OnReceipt(_ context.Context, receipt chain.TransactionReceipt, tx chain.IncompleteTransaction, block *chain.StreamerMessage) error {
	return r.record(fmt.Sprintf("receipt %d %s tx=%s", block.Height(), label(receipt.Receipt.Receipt.ReceiptID), label(tx.Hash)))
}

func (r *recorder) OnTransaction(_ context.Context, tx chain.CompleteTransaction, block *chain.StreamerMessage) error {
	return r.record(fmt.Sprintf("transaction %d %s receipts=%d", block.Height(), label(tx.Transaction.Transaction.Hash), len(tx.Receipts)))
}

func (r *recorder) OnBlockEnd(_ context.Context, block *chain.StreamerMessage) error {
	return r.record(fmt.Sprintf("end %d", block.Height()))
}

func label(h model.CryptoHash) string {
	end := 0
	for end < len(h) && h[end] != 0 {
		end++
	}
	return string(h[:end])
}

// fakeSource serves blocks from a map; missing heights are skipped blocks.
type fakeSource struct {
	mu      sync.Mutex
	blocks  map[uint64]*chain.StreamerMessage
	tip     uint64
	failFor map[uint64]int
	fetched []uint64
}

func (s *fakeSource) Block(_ context.Context, height uint64) (*chain.StreamerMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, height)
	if s.failFor[height] > 0 {
		s.failFor[height]--
		return nil, fmt.Errorf("temporary failure for %d", height)
	}
	return s.blocks[height], nil
}

func (s *fakeSource) FinalBlockHeight(context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tip, nil
}

// memResume is an in-memory ResumeStore.
type memResume struct {
	last  uint64
	ok    bool
	saved []uint64
}

func (m *memResume) Load(context.Context) (uint64, bool, error) {
	return m.last, m.ok, nil
}

func (m *memResume) Save(_ context.Context, height uint64) error {
	m.last, m.ok = height, true
	m.saved = append(m.saved, height)
	return nil
}
