package metadata

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestDecodeFullDmintMap(t *testing.T) {
	raw, err := cbor.Marshal(map[string]any{
		"p": []int{1, 4},
		"v": 1,
		"dmint": map[string]any{
			"algo":      1,
			"maxHeight": int64(21000),
			"reward":    int64(5_000_000),
			"premine":   int64(0),
			"diff":      int64(1),
			"daa": map[string]any{
				"mode":   2,
				"params": map[string]int64{"halfLife": 600},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	m, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !m.Mineable() {
		t.Fatal("expected map with p=[1,4] to be mineable")
	}
	if m.Dmint == nil {
		t.Fatal("expected dmint section to be decoded")
	}
	if m.EffectiveAlgo() != 1 {
		t.Fatalf("EffectiveAlgo() = %d, want 1", m.EffectiveAlgo())
	}
	if m.EffectiveDaaMode() != 2 {
		t.Fatalf("EffectiveDaaMode() = %d, want 2", m.EffectiveDaaMode())
	}
	if got := m.Dmint.Daa.Params["halfLife"]; got != 600 {
		t.Fatalf("halfLife param = %d, want 600", got)
	}
}

func TestDecodeMissingDmintFallsBackToDefaults(t *testing.T) {
	raw, err := cbor.Marshal(map[string]any{"p": []int{1}})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	m, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.Dmint != nil {
		t.Fatal("expected nil Dmint when key absent")
	}
	if m.EffectiveAlgo() != 0x00 {
		t.Fatalf("EffectiveAlgo() = %d, want 0x00", m.EffectiveAlgo())
	}
	if m.EffectiveDaaMode() != 0x00 {
		t.Fatalf("EffectiveDaaMode() = %d, want 0x00 (Fixed)", m.EffectiveDaaMode())
	}
}

func TestMineableRequiresBothTags(t *testing.T) {
	cases := []struct {
		tags []int
		want bool
	}{
		{[]int{1}, false},
		{[]int{4}, false},
		{[]int{1, 4}, true},
		{[]int{4, 1, 9}, true},
		{nil, false},
	}
	for _, c := range cases {
		m := TokenMetadata{P: c.tags}
		if got := m.Mineable(); got != c.want {
			t.Fatalf("Mineable(%v) = %v, want %v", c.tags, got, c.want)
		}
	}
}

func TestDecodeRejectsMalformedCbor(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected an error decoding malformed CBOR")
	}
}
