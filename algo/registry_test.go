package algo

import "testing"

func TestLookupKnownAlgorithms(t *testing.T) {
	for _, id := range []AlgoID{Sha256d, Blake3, K12, Argon2Light} {
		d, err := Lookup(id)
		if err != nil {
			t.Fatalf("Lookup(%v): %v", id, err)
		}
		if d.ID != id {
			t.Fatalf("Lookup(%v).ID = %v", id, d.ID)
		}
	}
}

func TestLookupUnknownAlgorithm(t *testing.T) {
	if _, err := Lookup(AlgoID(0x04)); err != ErrUnsupportedAlgorithm {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
	if _, err := Lookup(AlgoID(0xff)); err != ErrUnsupportedAlgorithm {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestSupportedExcludesArgon2Light(t *testing.T) {
	cases := map[AlgoID]bool{
		Sha256d:     true,
		Blake3:      true,
		K12:         true,
		Argon2Light: false,
		AlgoID(0x04): false,
	}
	for id, want := range cases {
		if got := Supported(id); got != want {
			t.Errorf("Supported(%v) = %v, want %v", id, got, want)
		}
	}
}

func TestTargetFormats(t *testing.T) {
	sha, _ := Lookup(Sha256d)
	if sha.TargetFormat != LegacyV1 {
		t.Fatalf("sha256d target format = %v, want LegacyV1", sha.TargetFormat)
	}
	for _, id := range []AlgoID{Blake3, K12, Argon2Light} {
		d, _ := Lookup(id)
		if d.TargetFormat != Full256 {
			t.Fatalf("%v target format = %v, want Full256", id, d.TargetFormat)
		}
	}
}

func TestDifficultyToTargetLegacyV1(t *testing.T) {
	target, _ := DifficultyToTarget(LegacyV1, 1)
	if target != MaxTargetLegacyV1 {
		t.Fatalf("difficulty=1 target = %d, want %d", target, MaxTargetLegacyV1)
	}
	half, _ := DifficultyToTarget(LegacyV1, 2)
	if half != MaxTargetLegacyV1/2 {
		t.Fatalf("difficulty=2 target = %d, want %d", half, MaxTargetLegacyV1/2)
	}
}

func TestTargetToDifficultyRoundTripsWithDifficultyToTarget(t *testing.T) {
	// spec.md's S1 scenario target, 0x0000_0FFF_FFFF_FFFF (~1.76e13): a
	// bootstrap from on-chain state must recover a difficulty that maps
	// straight back to that same target, not some astronomically
	// different value.
	const onChainTarget = 0x0000_0FFF_FFFF_FFFF

	difficulty := TargetToDifficulty(LegacyV1, onChainTarget)
	gotTarget, _ := DifficultyToTarget(LegacyV1, difficulty)
	if gotTarget != onChainTarget {
		t.Fatalf("round trip mismatch: target=%d -> difficulty=%d -> target=%d", onChainTarget, difficulty, gotTarget)
	}
}

func TestTargetToDifficultyUnitTarget(t *testing.T) {
	difficulty := TargetToDifficulty(LegacyV1, 1)
	if difficulty != MaxTargetLegacyV1 {
		t.Fatalf("target=1 difficulty = %d, want %d", difficulty, MaxTargetLegacyV1)
	}
}

func TestDifficultyToTargetFull256(t *testing.T) {
	_, target := DifficultyToTarget(Full256, 1)
	if target != MaxTargetFull256 {
		t.Fatalf("difficulty=1 target = %x, want %x", target, MaxTargetFull256)
	}
	_, half := DifficultyToTarget(Full256, 2)
	var want [32]byte
	want[0] = 0x7f
	for i := 1; i < 32; i++ {
		want[i] = 0xff
	}
	if half != want {
		t.Fatalf("difficulty=2 target = %x, want %x", half, want)
	}
}
