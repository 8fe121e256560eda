// Package verify recomputes a candidate nonce's hash on the host and checks
// it against the target predicate declared by the algorithm's target
// format. It is the sole authority on whether a device-produced candidate
// is actually valid; device false positives are discarded silently here.
package verify

import (
	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/xhash"
)

// Target carries whichever representation matches the algorithm's
// TargetFormat. Only one field is meaningful per format.
type Target struct {
	Legacy uint64   // valid iff Format == algo.LegacyV1
	Full   [32]byte // valid iff Format == algo.Full256
	Format algo.TargetFormat
}

// Verify recomputes the hash for (preimage, nonceHi, nonceLo) under id and
// reports whether it satisfies target. The returned hash is always the
// freshly computed digest, useful for logging/diagnostics regardless of
// outcome.
func Verify(id algo.AlgoID, preimage [64]byte, nonceHi, nonceLo uint32, target Target) (bool, [32]byte, error) {
	d, err := algo.Lookup(id)
	if err != nil {
		return false, [32]byte{}, err
	}
	if !algo.Supported(id) {
		return false, [32]byte{}, algo.ErrUnsupportedAlgorithm
	}

	hasher, err := xhash.For(id)
	if err != nil {
		return false, [32]byte{}, err
	}

	switch d.TargetFormat {
	case algo.LegacyV1:
		var tail [8]byte
		tail[0], tail[1], tail[2], tail[3] = byte(nonceHi>>24), byte(nonceHi>>16), byte(nonceHi>>8), byte(nonceHi)
		tail[4], tail[5], tail[6], tail[7] = byte(nonceLo>>24), byte(nonceLo>>16), byte(nonceLo>>8), byte(nonceLo)
		full := append(append([]byte(nil), preimage[:]...), tail[:]...)
		h, err := hasher.Hash(full)
		if err != nil {
			return false, h, err
		}
		return checkLegacyV1(h, target.Legacy), h, nil

	case algo.Full256:
		var tail [8]byte
		tail[0], tail[1], tail[2], tail[3] = byte(nonceHi>>24), byte(nonceHi>>16), byte(nonceHi>>8), byte(nonceHi)
		tail[4], tail[5], tail[6], tail[7] = byte(nonceLo>>24), byte(nonceLo>>16), byte(nonceLo>>8), byte(nonceLo)
		full := append(append([]byte(nil), preimage[:]...), tail[:]...)
		h, err := hasher.Hash(full)
		if err != nil {
			return false, h, err
		}
		return checkFull256(h, target.Full), h, nil

	default:
		return false, [32]byte{}, algo.ErrUnsupportedAlgorithm
	}
}

// checkLegacyV1 requires the first four hash bytes to be zero and compares
// bytes 4..12 as a big-endian uint64 against target.
func checkLegacyV1(h [32]byte, target uint64) bool {
	if h[0] != 0 || h[1] != 0 || h[2] != 0 || h[3] != 0 {
		return false
	}
	v := uint64(h[4])<<56 | uint64(h[5])<<48 | uint64(h[6])<<40 | uint64(h[7])<<32 |
		uint64(h[8])<<24 | uint64(h[9])<<16 | uint64(h[10])<<8 | uint64(h[11])
	return v < target
}

// checkFull256 compares the full 32-byte hash, big-endian, against target.
func checkFull256(h [32]byte, target [32]byte) bool {
	for i := 0; i < 32; i++ {
		if h[i] != target[i] {
			return h[i] < target[i]
		}
	}
	return false // equal is not less-than
}
