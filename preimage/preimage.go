// Package preimage builds the canonical 64-byte preimage every dMint PoW
// hash is computed over, and the per-algorithm midstate derived from it.
package preimage

import (
	"crypto/sha256"

	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/xhash"
)

// Location identifies the UTXO currently carrying a contract's state.
type Location struct {
	Txid   [32]byte
	Output uint32
}

// sha256d is two successive SHA-256 passes, used by both halves of the
// preimage regardless of the mining algorithm selected — the preimage
// construction itself is algorithm-independent; only the nonce-hash step
// (4.C/4.D) varies by algorithm.
func sha256d(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// reverse32 returns b with its byte order reversed, the txid byte-reversal
// the preimage requires.
func reverse32(b [32]byte) [32]byte {
	var out [32]byte
	for i := range b {
		out[i] = b[31-i]
	}
	return out
}

// Build constructs the canonical 64-byte preimage:
//
//	preimage[0..31]  = SHA256( reverse(location_txid) || contract_ref )
//	preimage[32..63] = SHA256( SHA256d(input_script) || SHA256d(output_script) )
func Build(loc Location, contractRef [36]byte, inputScript, outputScript []byte) [64]byte {
	var out [64]byte

	head := make([]byte, 0, 32+36)
	rev := reverse32(loc.Txid)
	head = append(head, rev[:]...)
	head = append(head, contractRef[:]...)
	first := sha256.Sum256(head)
	copy(out[0:32], first[:])

	inHash := sha256d(inputScript)
	outHash := sha256d(outputScript)
	tail := make([]byte, 0, 64)
	tail = append(tail, inHash[:]...)
	tail = append(tail, outHash[:]...)
	second := sha256.Sum256(tail)
	copy(out[32:64], second[:])

	return out
}

// Midstate is the closed tagged union over the per-algorithm precomputation
// done from the fixed 64-byte preimage, matching the dynamic-algorithm
// design note: one discriminator (Kind), never dynamic dispatch.
type Midstate struct {
	Kind  algo.MidstateKind
	Block [32]byte  // valid iff Kind == MidstateSHA256Block
	Words [16]uint32 // valid iff Kind == MidstateWords16
	Raw   [64]byte  // valid iff Kind == MidstateNone
}

// Compute derives the midstate for id from preimage, per the shape declared
// in the algorithm's Descriptor.
func Compute(id algo.AlgoID, pre [64]byte) (Midstate, error) {
	d, err := algo.Lookup(id)
	if err != nil {
		return Midstate{}, err
	}
	switch d.Midstate {
	case algo.MidstateSHA256Block:
		return Midstate{Kind: d.Midstate, Block: xhash.Sha256Midstate(pre)}, nil
	case algo.MidstateWords16:
		return Midstate{Kind: d.Midstate, Words: xhash.Blake3MidstateWords(pre)}, nil
	case algo.MidstateNone:
		return Midstate{Kind: d.Midstate, Raw: pre}, nil
	default:
		return Midstate{}, algo.ErrUnsupportedAlgorithm
	}
}

// AppendNonce appends the 8-byte nonce (nonce_hi, nonce_lo as two u32
// halves, big-endian overall per the wire contract with the device) to the
// 64-byte preimage, forming the 72-byte hash input used by SHA-256d direct
// verification and by the Full256 algorithms.
func AppendNonce(pre [64]byte, nonceHi, nonceLo uint32) [72]byte {
	var out [72]byte
	copy(out[:64], pre[:])
	out[64] = byte(nonceHi >> 24)
	out[65] = byte(nonceHi >> 16)
	out[66] = byte(nonceHi >> 8)
	out[67] = byte(nonceHi)
	out[68] = byte(nonceLo >> 24)
	out[69] = byte(nonceLo >> 16)
	out[70] = byte(nonceLo >> 8)
	out[71] = byte(nonceLo)
	return out
}
