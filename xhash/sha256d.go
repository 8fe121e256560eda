package xhash

import "crypto/sha256"

// sha256dHasher computes two successive SHA-256 passes, the contract
// variant used for binary compatibility with existing SHA-256d dMint
// contracts.
type sha256dHasher struct{}

func (sha256dHasher) Hash(input []byte) ([32]byte, error) {
	first := sha256.Sum256(input)
	return sha256.Sum256(first[:]), nil
}

// sha256IV is the FIPS 180-4 initial hash value for SHA-256.
var sha256IV = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

var sha256K = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

func rotr32(x uint32, n uint) uint32 { return x>>n | x<<(32-n) }

// sha256BlockTransform performs one FIPS 180-4 compression over a single
// 64-byte block, returning the next chaining state. This gives the device
// driver contract a real, independently verifiable midstate rather than a
// re-hash of the padded preimage.
func sha256BlockTransform(state [8]uint32, block [64]byte) [8]uint32 {
	var w [64]uint32
	for i := 0; i < 16; i++ {
		w[i] = uint32(block[i*4])<<24 | uint32(block[i*4+1])<<16 | uint32(block[i*4+2])<<8 | uint32(block[i*4+3])
	}
	for i := 16; i < 64; i++ {
		s0 := rotr32(w[i-15], 7) ^ rotr32(w[i-15], 18) ^ (w[i-15] >> 3)
		s1 := rotr32(w[i-2], 17) ^ rotr32(w[i-2], 19) ^ (w[i-2] >> 10)
		w[i] = w[i-16] + s0 + w[i-7] + s1
	}

	a, b, c, d, e, f, g, h := state[0], state[1], state[2], state[3], state[4], state[5], state[6], state[7]
	for i := 0; i < 64; i++ {
		s1 := rotr32(e, 6) ^ rotr32(e, 11) ^ rotr32(e, 25)
		ch := (e & f) ^ (^e & g)
		t1 := h + s1 + ch + sha256K[i] + w[i]
		s0 := rotr32(a, 2) ^ rotr32(a, 13) ^ rotr32(a, 22)
		maj := (a & b) ^ (a & c) ^ (b & c)
		t2 := s0 + maj

		h, g, f, e = g, f, e, d+t1
		d, c, b, a = c, b, a, t1+t2
	}

	return [8]uint32{
		state[0] + a, state[1] + b, state[2] + c, state[3] + d,
		state[4] + e, state[5] + f, state[6] + g, state[7] + h,
	}
}

// Sha256Midstate returns the 32-byte SHA-256 partial state after absorbing
// the 64-byte preimage as one full compression block (no padding). The
// device finalizes only the second block (nonce + padding) against this
// state.
func Sha256Midstate(preimage [64]byte) [32]byte {
	state := sha256BlockTransform(sha256IV, preimage)
	var out [32]byte
	for i, s := range state {
		out[i*4] = byte(s >> 24)
		out[i*4+1] = byte(s >> 16)
		out[i*4+2] = byte(s >> 8)
		out[i*4+3] = byte(s)
	}
	return out
}

// Sha256FinalizeFromMidstate finalizes a SHA-256 hash given the midstate
// after the first block and the remaining tail bytes (here always the
// 8-byte nonce, padded per FIPS 180-4 to a second 64-byte block since the
// total message length is always exactly 72 bytes).
func Sha256FinalizeFromMidstate(midstate [32]byte, tail [8]byte) [32]byte {
	var state [8]uint32
	for i := 0; i < 8; i++ {
		state[i] = uint32(midstate[i*4])<<24 | uint32(midstate[i*4+1])<<16 | uint32(midstate[i*4+2])<<8 | uint32(midstate[i*4+3])
	}

	var block [64]byte
	copy(block[:8], tail[:])
	block[8] = 0x80
	// total message length is 72 bytes = 576 bits.
	const bitLen = uint64(72 * 8)
	block[56] = byte(bitLen >> 56)
	block[57] = byte(bitLen >> 48)
	block[58] = byte(bitLen >> 40)
	block[59] = byte(bitLen >> 32)
	block[60] = byte(bitLen >> 24)
	block[61] = byte(bitLen >> 16)
	block[62] = byte(bitLen >> 8)
	block[63] = byte(bitLen)

	final := sha256BlockTransform(state, block)
	var out [32]byte
	for i, s := range final {
		out[i*4] = byte(s >> 24)
		out[i*4+1] = byte(s >> 16)
		out[i*4+2] = byte(s >> 8)
		out[i*4+3] = byte(s)
	}
	return out
}
