package xhash

import "github.com/zeebo/blake3"

// blake3Hasher computes a 32-byte BLAKE3 digest, the Full256 target-format
// algorithm family.
type blake3Hasher struct{}

func (blake3Hasher) Hash(input []byte) ([32]byte, error) {
	sum := blake3.Sum256(input)
	return sum, nil
}

// Blake3MidstateWords reinterprets the 64-byte preimage as 16 little-endian
// u32 words, the shape the on-device kernel absorbs directly — the
// first-block compression under BLAKE3's initial-block flag happens on the
// device itself.
func Blake3MidstateWords(preimage [64]byte) [16]uint32 {
	var words [16]uint32
	for i := 0; i < 16; i++ {
		words[i] = uint32(preimage[i*4]) | uint32(preimage[i*4+1])<<8 |
			uint32(preimage[i*4+2])<<16 | uint32(preimage[i*4+3])<<24
	}
	return words
}
