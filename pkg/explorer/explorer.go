package explorer

import "context"

// Service is the abstraction of the block explorer used to publish witness
// transactions. Broadcast failures leave local state untouched and must be
// retried by the caller.
type Service interface {
	// BroadcastTransaction publishes a raw transaction in hex format and
	// returns its txid.
	BroadcastTransaction(ctx context.Context, txHex string) (string, error)
}
