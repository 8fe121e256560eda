// Package xhash provides one Hasher implementation per algorithm family
// registered in package algo. It mirrors the teacher's CryptoProvider
// pattern: a narrow capability interface selected once, never dispatched
// dynamically per call.
package xhash

import "github.com/radiant-core/dmint-miner/algo"

// Hasher computes the algorithm's hash over an arbitrary byte string. It is
// the host-side (CPU) reference implementation used both by the host
// verifier (4.C) and by the in-process reference Device (4.D) that stands
// in for a real GPU backend.
type Hasher interface {
	// Hash returns the final digest for input. For Full256 algorithms this
	// is the 32-byte hash compared directly against the target. For
	// LegacyV1 (SHA-256d) it is the double-SHA-256 digest.
	Hash(input []byte) ([32]byte, error)
}

// For returns the Hasher for id, or algo.ErrUnsupportedAlgorithm for any id
// the registry doesn't know. For Argon2id-Light it returns a Hasher whose
// Hash always fails with algo.ErrUnsupportedAlgorithm (deferred per
// spec.md's Open Questions).
func For(id algo.AlgoID) (Hasher, error) {
	switch id {
	case algo.Sha256d:
		return sha256dHasher{}, nil
	case algo.Blake3:
		return blake3Hasher{}, nil
	case algo.K12:
		return k12Hasher{}, nil
	case algo.Argon2Light:
		return argon2LightHasher{}, nil
	default:
		return nil, algo.ErrUnsupportedAlgorithm
	}
}
