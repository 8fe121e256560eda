package claim

import (
	"crypto/sha256"
	"errors"

	"github.com/radiant-core/dmint-miner/adapter"
	"github.com/radiant-core/dmint-miner/contract"
)

// feeRatePerKB is F from §4.G step 2: 5,000,000 photons per kilobyte.
const feeRatePerKB = 5_000_000

func sha256d(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// ClaimParams is everything BuildClaimTx needs to assemble the four-output
// claim transaction described in §4.G step 2.
type ClaimParams struct {
	Current  ContractState
	NextDaa  DaaUpdate
	NonceHi  uint32
	NonceLo  uint32
	Wallet   adapter.WalletSnapshot
	RewardTo []byte // reward output locking script, built by caller; the coordinator uses BuildRewardScript, which does not carry token_ref
	Message  []byte // Work.OutputScript bytes, copied verbatim as Output 2
}

// DaaUpdate is the post-mint difficulty/target the next-state output must
// carry; computed by the daa package immediately before assembly.
type DaaUpdate struct {
	Target uint64 // valid for LegacyV1-format algorithms
}

var ErrInsufficientFunds = errors.New("claim: wallet inputs insufficient to cover reward and fee")

const (
	opDup         = 0x76
	opHash160     = 0xa9
	opEqualVerify = 0x88
	opCheckSig    = 0xac
)

// BuildRewardScript wraps a wallet-supplied hash160 address in a standard
// pay-to-address locking script: the reward output's destination.
func BuildRewardScript(addr []byte) []byte {
	script := make([]byte, 0, len(addr)+5)
	script = append(script, opDup, opHash160, byte(len(addr)))
	script = append(script, addr...)
	script = append(script, opEqualVerify, opCheckSig)
	return script
}

// BuildClaimTx assembles the raw transaction bytes for one claim attempt.
// Layout: version(4) | input_count | inputs | output_count | outputs.
func BuildClaimTx(p ClaimParams) ([]byte, error) {
	var tx []byte
	tx = appendU32le(tx, 1)

	inputCount := 1 + len(p.Wallet.Unspent)
	tx = appendCompactSize(tx, uint64(inputCount))

	inScriptHash := sha256d(p.Current.InputScript)
	outScriptHash := sha256d(p.Current.OutputScript)

	scriptSig := appendU64le(nil, uint64(p.NonceHi)<<32|uint64(p.NonceLo))
	scriptSig = append(scriptSig, inScriptHash[:]...)
	scriptSig = append(scriptSig, outScriptHash[:]...)
	scriptSig = append(scriptSig, 0x00)

	tx = append(tx, p.Current.Location.Txid[:]...)
	tx = appendU32le(tx, p.Current.Location.Output)
	tx = appendCompactSize(tx, uint64(len(scriptSig)))
	tx = append(tx, scriptSig...)
	tx = appendU32le(tx, ^uint32(0)) // sequence

	var totalIn uint64
	for _, u := range p.Wallet.Unspent {
		tx = append(tx, u.Txid[:]...)
		tx = appendU32le(tx, u.Vout)
		sig := signPlaceholder(p.Wallet.SigningKey, u)
		tx = appendCompactSize(tx, uint64(len(sig)))
		tx = append(tx, sig...)
		tx = appendU32le(tx, ^uint32(0))
		totalIn += u.Value
	}

	const outputCount = 4
	tx = appendCompactSize(tx, outputCount)

	nextHeight := uint64(p.Current.Height) + 1
	var stateScript []byte
	if nextHeight == p.Current.MaxHeight {
		stateScript = contract.BuildBurnScript(p.Current.ContractRef)
	} else {
		next := contract.State{
			Layout:      contract.LayoutV1,
			Height:      uint32(nextHeight),
			ContractRef: p.Current.ContractRef,
			TokenRef:    p.Current.TokenRef,
			MaxHeight:   p.Current.MaxHeight,
			Reward:      p.Current.Reward,
			Target:      p.NextDaa.Target,
		}
		stateScript = contract.BuildStateScript(next)
	}
	tx = appendU64le(tx, 0)
	tx = appendCompactSize(tx, uint64(len(stateScript)))
	tx = append(tx, stateScript...)

	tx = appendU64le(tx, p.Current.Reward)
	tx = appendCompactSize(tx, uint64(len(p.RewardTo)))
	tx = append(tx, p.RewardTo...)

	tx = append(tx, 0, 0, 0, 0, 0, 0, 0, 0) // message output carries no value
	tx = appendCompactSize(tx, uint64(len(p.Message)))
	tx = append(tx, p.Message...)

	changeValueOffset := len(tx)
	tx = appendU64le(tx, 0) // placeholder, patched below
	tx = appendCompactSize(tx, uint64(len(p.Wallet.ChangeScript)))
	tx = append(tx, p.Wallet.ChangeScript...)

	fee := uint64(len(tx)) * feeRatePerKB / 1000
	if totalIn < p.Current.Reward+fee {
		return nil, ErrInsufficientFunds
	}
	change := totalIn - p.Current.Reward - fee
	copy(tx[changeValueOffset:changeValueOffset+8], appendU64le(nil, change))

	return tx, nil
}

// signPlaceholder stands in for the wallet's actual signing step (out of
// scope per §1: the wallet owns signing). It produces a well-formed but
// non-cryptographic scriptSig so the assembled transaction has the right
// shape for size/fee estimation.
func signPlaceholder(signingKey []byte, u adapter.Utxo) []byte {
	h := sha256d(append(append([]byte(nil), signingKey...), u.Txid[:]...))
	return h[:]
}
