package adapter

// Utxo is one unspent output in a WalletSnapshot.
type Utxo struct {
	Txid  [32]byte
	Vout  uint32
	Value uint64
}

// WalletSnapshot is the ordered unspent-output list a Wallet reports on
// demand, plus the signing key and mining destination.
type WalletSnapshot struct {
	Unspent      []Utxo
	SigningKey   []byte
	Address      []byte
	ChangeScript []byte
}

// Wallet provides the signing key, change address, and UTXO list the
// claim coordinator needs. Address/ChangeScript/SigningKey are expected
// synchronously; Unspent is refreshed on demand.
type Wallet interface {
	Address() []byte
	ChangeScript() []byte
	SigningKey() []byte
	Unspent() (WalletSnapshot, error)
}
