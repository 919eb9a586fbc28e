package pipeline

import (
	"txIndexer/internal/chain"
	"txIndexer/internal/model"
)

// ClassifyOutcome maps an execution status to its tri-state success.
func ClassifyOutcome(status chain.ExecutionStatus) model.Success {
	switch status.Kind {
	case chain.StatusSuccessValue, chain.StatusSuccessReceiptID:
		return model.Succeeded
	case chain.StatusFailure:
		return model.Failed
	default:
		return model.Pending
	}
}
