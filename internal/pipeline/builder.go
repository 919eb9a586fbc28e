package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"txIndexer/internal/chain"
	"txIndexer/internal/model"
)

// ErrMalformedAction is returned when a transaction action is not valid JSON.
var ErrMalformedAction = errors.New("malformed action")

// BuildReceiptEvent builds the event for an executed receipt. Height and timestamp come
// from the block the receipt executed in.
func BuildReceiptEvent(receipt chain.TransactionReceipt, tx chain.IncompleteTransaction) model.ReceiptEvent {
	outcome := receipt.Receipt.ExecutionOutcome.Outcome
	return model.ReceiptEvent{
		BlockTimestampNanosec: receipt.BlockTimestampNanosec,
		BlockHeight:           receipt.BlockHeight,
		ReceiptID:             receipt.Receipt.Receipt.ReceiptID,
		TransactionID:         tx.Hash,
		PredecessorID:         receipt.Receipt.Receipt.PredecessorID,
		ExecutorID:            outcome.ExecutorID,
		Success:               ClassifyOutcome(outcome.Status),
	}
}

// BuildTransactionEvent builds the event for a transaction whose receipts have all
// executed. block is the block in which it completed.
func BuildTransactionEvent(tx chain.CompleteTransaction, block *chain.StreamerMessage) (model.TransactionEvent, error) {
	signed := tx.Transaction.Transaction

	actions := make([]json.RawMessage, 0, len(signed.Actions))
	for i, action := range signed.Actions {
		var buf bytes.Buffer
		if err := json.Compact(&buf, action); err != nil {
			return model.TransactionEvent{}, fmt.Errorf("%w: transaction %s action %d: %v", ErrMalformedAction, signed.Hash, i, err)
		}
		actions = append(actions, buf.Bytes())
	}

	// neardata reports 0 for transactions that cannot carry a fee; those publish null.
	var priorityFee *uint64
	if signed.PriorityFee != nil && *signed.PriorityFee != 0 {
		fee := *signed.PriorityFee
		priorityFee = &fee
	}

	return model.TransactionEvent{
		BlockTimestampNanosec: block.Block.Header.TimestampNanosec,
		BlockHeight:           block.Height(),
		TransactionID:         signed.Hash,
		SignerID:              signed.SignerID,
		ReceiverID:            signed.ReceiverID,
		PublicKey:             signed.PublicKey,
		Nonce:                 signed.Nonce,
		Actions:               actions,
		PriorityFee:           priorityFee,
		Signature:             signed.Signature,
	}, nil
}
