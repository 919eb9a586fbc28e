package pipeline

import (
	"testing"

	"txIndexer/internal/chain"
	"txIndexer/internal/model"
)

func TestClassifyOutcome(t *testing.T) {
	cases := []struct {
		status chain.ExecutionStatus
		want   model.Success
	}{
		{chain.ExecutionStatus{Kind: chain.StatusSuccessValue, SuccessValue: "dHJ1ZQ=="}, model.Succeeded},
		{chain.ExecutionStatus{Kind: chain.StatusSuccessReceiptID, ReceiptID: model.MustParseCryptoHash("4YCAaFSM4c4S7fUNvXw2fbBjtu3VdTWiaWV4DkDYGNEF")}, model.Succeeded},
		{chain.ExecutionStatus{Kind: chain.StatusFailure}, model.Failed},
		{chain.ExecutionStatus{Kind: chain.StatusUnknown}, model.Pending},
		{chain.ExecutionStatus{}, model.Pending},
	}
	for _, tc := range cases {
		if got := ClassifyOutcome(tc.status); got != tc.want {
			t.Fatalf("status %s: got %s, want %s", tc.status.Kind, got, tc.want)
		}
	}
}
