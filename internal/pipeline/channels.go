package pipeline

const (
	TransactionChannel = "tx_transaction"
	ReceiptChannel     = "tx_receipt"
)

// ChannelName returns the bus channel for base, suffixed on testnet so both networks
// can share one Redis.
func ChannelName(base string, testnet bool) string {
	if testnet {
		return base + "_testnet"
	}
	return base
}
