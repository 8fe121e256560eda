package xhash

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestMidstateFinalizeMatchesStdlib(t *testing.T) {
	var preimage [64]byte
	for i := range preimage {
		preimage[i] = byte(i)
	}
	var nonce [8]byte
	for i := range nonce {
		nonce[i] = byte(0xa0 + i)
	}

	mid := Sha256Midstate(preimage)
	got := Sha256FinalizeFromMidstate(mid, nonce)

	full := append(append([]byte(nil), preimage[:]...), nonce[:]...)
	want := sha256.Sum256(full)

	if !bytes.Equal(got[:], want[:]) {
		t.Fatalf("midstate-path hash = %x, want %x", got, want)
	}
}

func TestSha256dHasherTwoPasses(t *testing.T) {
	h := sha256dHasher{}
	input := []byte("dmint")
	got, err := h.Hash(input)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	first := sha256.Sum256(input)
	want := sha256.Sum256(first[:])
	if got != want {
		t.Fatalf("sha256d mismatch: got %x want %x", got, want)
	}
}
