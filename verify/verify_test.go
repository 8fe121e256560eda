package verify

import (
	"crypto/sha256"
	"testing"

	"github.com/radiant-core/dmint-miner/algo"
)

// TestSHA256dHappyPath is scenario S1 from spec.md §8: preimage of i mod 256
// bytes, brute-force the smallest nonce under a generous target, and check
// that Verify agrees.
func TestSHA256dHappyPath(t *testing.T) {
	var pre [64]byte
	for i := range pre {
		pre[i] = byte(i % 256)
	}
	target := Target{Format: algo.LegacyV1, Legacy: 0x0000_0FFF_FFFF_FFFF}

	var foundHi, foundLo uint32
	found := false
outer:
	for hi := uint32(0); hi < 4; hi++ {
		for lo := uint32(0); lo < 2_000_000; lo++ {
			ok, _, err := Verify(algo.Sha256d, pre, hi, lo, target)
			if err != nil {
				t.Fatalf("Verify error: %v", err)
			}
			if ok {
				foundHi, foundLo, found = hi, lo, true
				break outer
			}
		}
	}
	if !found {
		t.Fatal("no nonce found within search bound — target or verifier is broken")
	}

	ok, h, err := Verify(algo.Sha256d, pre, foundHi, foundLo, target)
	if err != nil || !ok {
		t.Fatalf("re-verify failed: ok=%v err=%v", ok, err)
	}

	// Property 3: verify()==true implies hash(preimage||nonce) < target
	// under the target's comparison predicate.
	if h[0] != 0 || h[1] != 0 || h[2] != 0 || h[3] != 0 {
		t.Fatalf("accepted hash has nonzero 4-byte prefix: %x", h)
	}
}

func TestCheckLegacyV1RejectsNonzeroPrefix(t *testing.T) {
	var h [32]byte
	h[0] = 1
	if checkLegacyV1(h, ^uint64(0)) {
		t.Fatal("expected rejection for nonzero 4-byte prefix")
	}
}

func TestCheckFull256Ordering(t *testing.T) {
	var h, target [32]byte
	target[0] = 0x10
	h[0] = 0x05
	if !checkFull256(h, target) {
		t.Fatal("expected h < target to pass")
	}
	h[0] = 0x20
	if checkFull256(h, target) {
		t.Fatal("expected h > target to fail")
	}
	h[0] = 0x10
	if checkFull256(h, target) {
		t.Fatal("expected h == target to fail (not strictly less than)")
	}
}

func TestVerifyFull256RoundTrip(t *testing.T) {
	var pre [64]byte
	for i := range pre {
		pre[i] = byte(i)
	}
	// A maximal target always accepts the first candidate.
	target := Target{Format: algo.Full256, Full: algo.MaxTargetFull256}
	ok, h, err := Verify(algo.Blake3, pre, 0, 0, target)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected accept under max target, hash=%x", h)
	}
}

func TestVerifyArgon2LightUnsupported(t *testing.T) {
	var pre [64]byte
	target := Target{Format: algo.Full256, Full: algo.MaxTargetFull256}
	_, _, err := Verify(algo.Argon2Light, pre, 0, 0, target)
	if err != algo.ErrUnsupportedAlgorithm {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestVerifyUnknownAlgorithm(t *testing.T) {
	var pre [64]byte
	target := Target{Format: algo.Full256, Full: algo.MaxTargetFull256}
	_, _, err := Verify(algo.AlgoID(0x04), pre, 0, 0, target)
	if err != algo.ErrUnsupportedAlgorithm {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

// sanity: stdlib sha256d agrees with verify's internal path for the
// fixed-preimage, fixed-nonce case used elsewhere.
func TestSha256dAgreesWithStdlib(t *testing.T) {
	var pre [64]byte
	full := append(append([]byte(nil), pre[:]...), make([]byte, 8)...)
	first := sha256.Sum256(full)
	want := sha256.Sum256(first[:])

	target := Target{Format: algo.LegacyV1, Legacy: algo.MaxTargetLegacyV1}
	_, h, err := Verify(algo.Sha256d, pre, 0, 0, target)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if h != want {
		t.Fatalf("hash mismatch: got %x want %x", h, want)
	}
}
