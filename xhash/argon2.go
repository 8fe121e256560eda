package xhash

import (
	"github.com/radiant-core/dmint-miner/algo"
	"golang.org/x/crypto/argon2"
)

// Argon2LightParams mirrors the CLI/operator "max memory" knob from
// spec.md §6, kept here only so the registry entry has a real parameter
// shape to describe. Hash is never invoked — see the Open Questions in
// DESIGN.md: the feature is deferred, and Dispatch refuses algo=0x03 with
// ErrUnsupportedAlgorithm until a frozen spec exists.
type Argon2LightParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultArgon2LightParams is a placeholder shape only; it is not tuned or
// validated against any frozen on-chain spec.
var DefaultArgon2LightParams = Argon2LightParams{
	MemoryKiB:   64 * 1024,
	Iterations:  1,
	Parallelism: 1,
}

type argon2LightHasher struct{}

// Hash always fails: Argon2id-Light is registered for display/metadata
// purposes but is not minable. golang.org/x/crypto/argon2 is imported for
// the parameter shape only (IDKey's signature), never called.
func (argon2LightHasher) Hash(_ []byte) ([32]byte, error) {
	var zero [32]byte
	return zero, algo.ErrUnsupportedAlgorithm
}

// referenceArgon2idKey exists only to document the parameter binding that a
// future frozen implementation would call; it is unreachable from Hash and
// unused by the registry today.
func referenceArgon2idKey(password, salt []byte, p Argon2LightParams) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.MemoryKiB, p.Parallelism, 32)
}
