package xhash

import k12 "github.com/mimoo/GoKangarooTwelve/K12"

// k12Hasher computes a 32-byte KangarooTwelve digest, the second Full256
// target-format algorithm family. K12 absorbs the preimage words into a
// zero-initialized 1600-bit Keccak-p state on the device; the host verifier
// uses the reference implementation directly against the raw bytes.
type k12Hasher struct{}

func (k12Hasher) Hash(input []byte) ([32]byte, error) {
	var out [32]byte
	digest := k12.K12Sum(nil, input, 32)
	copy(out[:], digest)
	return out, nil
}

// K12MidstateWords reinterprets the 64-byte preimage as 16 little-endian
// u32 words, absorbed on-device into a zero-initialized 1600-bit state —
// the same word layout BLAKE3 uses, since both Full256 kernels take the
// preimage as device-native little-endian words.
func K12MidstateWords(preimage [64]byte) [16]uint32 {
	return Blake3MidstateWords(preimage)
}
