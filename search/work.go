package search

import (
	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/preimage"
	"github.com/radiant-core/dmint-miner/verify"
)

// Work is the derived, immutable-per-location unit the driver mines
// against. It is re-derived by the coordinator whenever ContractState
// changes and handed to the driver via SetWork.
type Work struct {
	Txid         [32]byte // location txid as stored; preimage.Build byte-reverses it
	ContractRef  [36]byte
	InputScript  []byte
	OutputScript []byte
	Target       verify.Target
	Algorithm    algo.AlgoID
}

// Preimage builds the canonical 64-byte preimage for w.
func (w Work) Preimage() [64]byte {
	loc := preimage.Location{Txid: w.Txid}
	return preimage.Build(loc, w.ContractRef, w.InputScript, w.OutputScript)
}

// Candidate is a nonce proposed by the device that passed the device-side
// predicate. The driver loop runs the host verifier on every candidate
// before emitting it on Candidates, so the coordinator receives only
// host-verified nonces and does not verify them again.
type Candidate struct {
	NonceHi uint32
	NonceLo uint32
	Hash    [32]byte
}

// Less reports whether c sorts strictly before o under the
// (nonce_hi, nonce_lo) ordering the driver is contracted to preserve.
func (c Candidate) Less(o Candidate) bool {
	if c.NonceHi != o.NonceHi {
		return c.NonceHi < o.NonceHi
	}
	return c.NonceLo < o.NonceLo
}
