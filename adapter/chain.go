// Package adapter declares the narrow capability interfaces the core
// consumes but never implements: the chain gateway, wallet, and discovery
// surfaces. Concrete implementations live outside this module.
package adapter

import "context"

// Location identifies the UTXO currently carrying a contract reference's
// state.
type Location struct {
	Txid   [32]byte
	Output uint32
}

// SubscriptionStatus is one status-token event delivered for a subscribed
// script hash. Callbacks for the same script hash arrive in the order the
// server emitted them; the core deduplicates by Token.
type SubscriptionStatus struct {
	ScriptHash [32]byte
	Token      string
}

// BroadcastError classifies a rejected broadcast so the coordinator can
// react per the error taxonomy in §4.G.
type BroadcastError struct {
	Kind    BroadcastErrorKind
	Message string
}

func (e *BroadcastError) Error() string { return e.Message }

// BroadcastErrorKind is the closed set of broadcast rejection reasons the
// coordinator distinguishes.
type BroadcastErrorKind int

const (
	BroadcastUnknown BroadcastErrorKind = iota
	BroadcastMempoolConflict
	BroadcastContractFail
	BroadcastMissingInputs
	BroadcastLowFee
)

// ChainGateway is the subscription/broadcast surface the coordinator
// drives. Implementations own the actual RPC/Electrum-style transport;
// this interface only fixes the request/response and publish/subscribe
// shapes the core depends on.
type ChainGateway interface {
	// FetchTx retrieves a transaction's raw bytes by txid. fresh bypasses
	// any local cache when true.
	FetchTx(ctx context.Context, txid [32]byte, fresh bool) ([]byte, error)

	// FetchRef resolves a contract reference to its first and current
	// locations.
	FetchRef(ctx context.Context, ref [36]byte) (first, current Location, err error)

	// Subscribe registers callback for status events on scriptHash.
	// Subscribe must deliver events for a given scriptHash strictly in
	// the order the server emitted them.
	Subscribe(ctx context.Context, scriptHash [32]byte, callback func(SubscriptionStatus)) error

	// Unsubscribe cancels a prior Subscribe for scriptHash.
	Unsubscribe(ctx context.Context, scriptHash [32]byte) error

	// Broadcast submits rawTx and returns its txid, or a *BroadcastError
	// carrying the classified rejection reason.
	Broadcast(ctx context.Context, rawTx []byte) (txid [32]byte, err error)
}
