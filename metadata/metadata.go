// Package metadata decodes a dMint contract's CBOR token-metadata map: the
// root authentication-head payload carried alongside a token group,
// covering protocol tags and the dmint-specific algorithm/DAA fields.
package metadata

import (
	"github.com/fxamacker/cbor/v2"
)

// DaaFields is the decoded dmint.daa sub-map: a mode tag plus a free-form
// parameter bag, since each DAA mode consumes a different parameter set.
type DaaFields struct {
	Mode   int              `cbor:"mode"`
	Params map[string]int64 `cbor:"params"`
}

// DmintFields is the decoded dmint sub-map.
type DmintFields struct {
	Algo      int       `cbor:"algo"`
	MaxHeight int64     `cbor:"maxHeight"`
	Reward    int64     `cbor:"reward"`
	Premine   int64     `cbor:"premine"`
	Diff      int64     `cbor:"diff"`
	Daa       DaaFields `cbor:"daa"`
}

// TokenMetadata is the decoded CBOR root map. P lists the protocol tags the
// token advertises; V is the metadata schema version, when present.
type TokenMetadata struct {
	P     []int        `cbor:"p"`
	V     *int         `cbor:"v"`
	Dmint *DmintFields `cbor:"dmint"`
}

// dmintProtocolTag and mintableProtocolTag are the two tags a token's P
// list must both contain for it to be treated as a mineable dMint token.
const (
	dmintProtocolTag    = 1
	mintableProtocolTag = 4
)

// Decode parses raw CBOR bytes into a TokenMetadata. A metadata map with no
// "dmint" key decodes successfully with Dmint == nil; callers fall back to
// algo_id 0x00 / Fixed DAA per spec, not Decode itself.
func Decode(raw []byte) (TokenMetadata, error) {
	var m TokenMetadata
	if err := cbor.Unmarshal(raw, &m); err != nil {
		return TokenMetadata{}, err
	}
	return m, nil
}

// Mineable reports whether m's protocol tags mark it as a dMint-mineable
// token: P must contain both the dmint tag and the mintable tag.
func (m TokenMetadata) Mineable() bool {
	hasDmint, hasMintable := false, false
	for _, tag := range m.P {
		switch tag {
		case dmintProtocolTag:
			hasDmint = true
		case mintableProtocolTag:
			hasMintable = true
		}
	}
	return hasDmint && hasMintable
}

// EffectiveAlgo returns m.Dmint.Algo, or 0x00 (SHA-256d) when no dmint
// section is present.
func (m TokenMetadata) EffectiveAlgo() int {
	if m.Dmint == nil {
		return 0x00
	}
	return m.Dmint.Algo
}

// EffectiveDaaMode returns m.Dmint.Daa.Mode, or 0x00 (Fixed) when no dmint
// section is present.
func (m TokenMetadata) EffectiveDaaMode() int {
	if m.Dmint == nil {
		return 0x00
	}
	return m.Dmint.Daa.Mode
}
