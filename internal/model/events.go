package model

import "encoding/json"

// TransactionEvent is published once per resolved transaction.
type TransactionEvent struct {
	BlockTimestampNanosec Uint128           `json:"block_timestamp_nanosec"`
	BlockHeight           uint64            `json:"block_height"`
	TransactionID         CryptoHash        `json:"transaction_id"`
	SignerID              string            `json:"signer_id"`
	ReceiverID            string            `json:"receiver_id"`
	PublicKey             string            `json:"public_key"`
	Nonce                 uint64            `json:"nonce"`
	Actions               []json.RawMessage `json:"actions"`
	PriorityFee           *uint64           `json:"priority_fee"`
	Signature             string            `json:"signature"`
}

// ReceiptEvent is published once per executed receipt.
type ReceiptEvent struct {
	BlockTimestampNanosec Uint128    `json:"block_timestamp_nanosec"`
	BlockHeight           uint64     `json:"block_height"`
	ReceiptID             CryptoHash `json:"receipt_id"`
	TransactionID         CryptoHash `json:"transaction_id"`
	PredecessorID         string     `json:"predecessor_id"`
	ExecutorID            string     `json:"executor_id"`
	Success               Success    `json:"success"`
}
