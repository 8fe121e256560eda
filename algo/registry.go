// Package algo holds the per-algorithm metadata the rest of the miner is
// generic over: buffer shapes, target comparison format, and the hash
// backend used to produce or verify a candidate.
package algo

import "fmt"

// AlgoID is the closed tagged discriminator over the four hash families a
// dMint contract can select. No dynamic dispatch beyond this one
// discriminator is required anywhere in the miner.
type AlgoID byte

const (
	Sha256d     AlgoID = 0x00
	Blake3      AlgoID = 0x01
	K12         AlgoID = 0x02
	Argon2Light AlgoID = 0x03
)

func (a AlgoID) String() string {
	switch a {
	case Sha256d:
		return "sha256d"
	case Blake3:
		return "blake3"
	case K12:
		return "k12"
	case Argon2Light:
		return "argon2id-light"
	default:
		return fmt.Sprintf("algo(0x%02x)", byte(a))
	}
}

// TargetFormat selects the comparison predicate applied to a candidate hash.
type TargetFormat byte

const (
	// LegacyV1 requires the first four hash bytes to be zero and compares
	// bytes 4..12 as a big-endian uint64 against a 64-bit target.
	LegacyV1 TargetFormat = iota
	// Full256 compares the full 32-byte hash, big-endian, against a
	// 256-bit target.
	Full256
)

// MaxTargetLegacyV1 is 2^63 - 1, the ceiling for the LegacyV1 comparison.
const MaxTargetLegacyV1 uint64 = 1<<63 - 1

// MaxTargetFull256 is 2^256 - 1, all bytes 0xff.
var MaxTargetFull256 = [32]byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// MidstateKind distinguishes how a Descriptor's algorithm absorbs the fixed
// 64-byte preimage prefix before the device finalizes over the nonce.
type MidstateKind byte

const (
	// MidstateSHA256Block is the 32-byte SHA-256 chaining state after one
	// compression of the 64-byte preimage block.
	MidstateSHA256Block MidstateKind = iota
	// MidstateWords16 is the 64-byte preimage reinterpreted as 16
	// little-endian u32 words, handed to the device as-is (BLAKE3, K12).
	MidstateWords16
	// MidstateNone means no midstate precomputation; the raw 64-byte
	// preimage is the device input (Argon2id-Light).
	MidstateNone
)

// Descriptor is the per-algorithm metadata the rest of the package registers
// and the search/verify packages look up by AlgoID.
type Descriptor struct {
	ID            AlgoID
	Name          string
	TargetFormat  TargetFormat
	Midstate      MidstateKind
	ResultArity   int // number of u32 words per result slot's hash fields
	WorkgroupSize int // default device threads per workgroup (S)
}

var registry = map[AlgoID]Descriptor{
	Sha256d: {
		ID:            Sha256d,
		Name:          "sha256d",
		TargetFormat:  LegacyV1,
		Midstate:      MidstateSHA256Block,
		ResultArity:   2,
		WorkgroupSize: 256,
	},
	Blake3: {
		ID:            Blake3,
		Name:          "blake3",
		TargetFormat:  Full256,
		Midstate:      MidstateWords16,
		ResultArity:   8,
		WorkgroupSize: 256,
	},
	K12: {
		ID:            K12,
		Name:          "k12",
		TargetFormat:  Full256,
		Midstate:      MidstateWords16,
		ResultArity:   8,
		WorkgroupSize: 256,
	},
	Argon2Light: {
		ID:            Argon2Light,
		Name:          "argon2id-light",
		TargetFormat:  Full256,
		Midstate:      MidstateNone,
		ResultArity:   8,
		WorkgroupSize: 64,
	},
}

// ErrUnsupportedAlgorithm is returned for algo=0x03 (Argon2id-Light,
// deferred per spec) and any algo_id outside the declared range.
var ErrUnsupportedAlgorithm = fmt.Errorf("dmint-miner: unsupported algorithm")

// Supported reports whether id can actually be driven end to end today.
// Argon2id-Light is registered (so it decodes and displays) but is not
// minable until a frozen spec exists.
func Supported(id AlgoID) bool {
	_, ok := registry[id]
	return ok && id != Argon2Light
}

// Lookup returns the Descriptor for id, or ErrUnsupportedAlgorithm if id is
// not a known algorithm at all (algo_id 0x04 = reserved, or anything
// higher).
func Lookup(id AlgoID) (Descriptor, error) {
	d, ok := registry[id]
	if !ok {
		return Descriptor{}, ErrUnsupportedAlgorithm
	}
	return d, nil
}

// DifficultyToTarget converts a positive integer difficulty to the target
// representation for format f: target = MAX_TARGET / d.
func DifficultyToTarget(f TargetFormat, difficulty uint64) (uint64, [32]byte) {
	if difficulty == 0 {
		difficulty = 1
	}
	switch f {
	case LegacyV1:
		return MaxTargetLegacyV1 / difficulty, [32]byte{}
	default:
		var maxT, out [32]byte
		maxT = MaxTargetFull256
		divideBigEndian256(maxT, difficulty, &out)
		return 0, out
	}
}

// TargetToDifficulty inverts DifficultyToTarget's LegacyV1 conversion:
// given an on-chain target value already in the comparand space a contract
// publishes, it recovers the difficulty a DAA engine should treat as its
// bootstrap value, so that a later DifficultyToTarget round-trips back to
// the same target. Since target = MAX_TARGET / d, difficulty = MAX_TARGET /
// target is its own inverse. contract.State.Target is only ever a 64-bit
// field today, so this is exact for LegacyV1 and a best-effort approximation
// for Full256 until the contract parser carries a full 256-bit target.
func TargetToDifficulty(f TargetFormat, target uint64) uint64 {
	if target == 0 {
		target = 1
	}
	return MaxTargetLegacyV1 / target
}

// divideBigEndian256 computes out = dividend / divisor for a 256-bit
// big-endian dividend and a uint64 divisor, via standard long division.
func divideBigEndian256(dividend [32]byte, divisor uint64, out *[32]byte) {
	if divisor == 0 {
		divisor = 1
	}
	var rem uint64
	for i := 0; i < 32; i++ {
		cur := rem<<8 | uint64(dividend[i])
		out[i] = byte(cur / divisor)
		rem = cur % divisor
	}
}
