// Package contract parses a dMint contract's locking script: a fixed
// prologue of pushed state fields followed by an opaque bytecode tail. It
// never interprets the tail's opcodes beyond matching it against the known
// template.
package contract

import (
	"bytes"
	"errors"

	"github.com/radiant-core/dmint-miner/algo"
)

// Layout distinguishes the V1 and V2 prologue shapes; V2 adds algo_id,
// last_time, and target_time.
type Layout int

const (
	LayoutV1 Layout = iota
	LayoutV2
)

// ErrNotAContract is returned when a script's tail does not match either
// known template.
var ErrNotAContract = errors.New("contract: not a dMint contract script")

// State is the decoded prologue of a contract's locking script.
type State struct {
	Layout      Layout
	Height      uint32
	ContractRef [36]byte
	TokenRef    [36]byte
	MaxHeight   uint64
	Reward      uint64
	Target      uint64

	// V2 only
	AlgoID     algo.AlgoID
	LastTime   uint32
	TargetTime uint64
}

// Parse decodes script's prologue after confirming its tail matches a
// known template. wantRef is the subscribed contract reference the caller
// expects to find (little-endian form); a mismatch is rejected even when
// the script otherwise parses cleanly.
func Parse(script []byte, wantRef [36]byte) (State, error) {
	layout, prologueLen, ok := matchTemplate(script)
	if !ok {
		return State{}, ErrNotAContract
	}

	cur := newCursor(script[:prologueLen])

	heightPush, err := cur.readPush()
	if err != nil {
		return State{}, err
	}
	height, err := decodeUint32LE(heightPush)
	if err != nil {
		return State{}, err
	}

	op1, err := cur.readU8()
	if err != nil {
		return State{}, err
	}
	if op1 != opPushInputRefSingleton {
		return State{}, errors.New("contract: expected OP_PUSHINPUTREFSINGLETON")
	}
	contractRefBytes, err := cur.readExact(36)
	if err != nil {
		return State{}, err
	}
	var contractRef [36]byte
	copy(contractRef[:], contractRefBytes)
	if !bytes.Equal(contractRef[:], wantRef[:]) {
		return State{}, errors.New("contract: contract_ref does not match subscribed reference")
	}

	op2, err := cur.readU8()
	if err != nil {
		return State{}, err
	}
	if op2 != opPushInputRef {
		return State{}, errors.New("contract: expected OP_PUSHINPUTREF")
	}
	tokenRefBytes, err := cur.readExact(36)
	if err != nil {
		return State{}, err
	}
	var tokenRef [36]byte
	copy(tokenRef[:], tokenRefBytes)

	maxHeight, err := cur.readMinimalInt()
	if err != nil {
		return State{}, err
	}
	reward, err := cur.readMinimalInt()
	if err != nil {
		return State{}, err
	}
	target, err := cur.readMinimalInt()
	if err != nil {
		return State{}, err
	}

	state := State{
		Layout:      layout,
		Height:      height,
		ContractRef: contractRef,
		TokenRef:    tokenRef,
		MaxHeight:   maxHeight,
		Reward:      reward,
		Target:      target,
	}

	if layout == LayoutV2 {
		algoByte, err := cur.readU8()
		if err != nil {
			return State{}, err
		}
		state.AlgoID = algo.AlgoID(algoByte)

		lastTimeBytes, err := cur.readExact(4)
		if err != nil {
			return State{}, err
		}
		state.LastTime = decodeU32LEBytes(lastTimeBytes)

		targetTime, err := cur.readMinimalInt()
		if err != nil {
			return State{}, err
		}
		state.TargetTime = targetTime
	}

	if state.Height > uint32(state.MaxHeight) {
		return State{}, errors.New("contract: height exceeds max_height")
	}

	return state, nil
}

// matchTemplate checks script's suffix against the known tails and
// returns the layout and the prologue length (everything before the
// tail) on a match.
func matchTemplate(script []byte) (Layout, int, bool) {
	if len(script) >= len(templateTailV2) && bytes.Equal(script[len(script)-len(templateTailV2):], templateTailV2) {
		return LayoutV2, len(script) - len(templateTailV2), true
	}
	if len(script) >= len(templateTailV1) && bytes.Equal(script[len(script)-len(templateTailV1):], templateTailV1) {
		return LayoutV1, len(script) - len(templateTailV1), true
	}
	return LayoutV1, 0, false
}

func decodeUint32LE(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, errors.New("contract: height push must be exactly 4 bytes")
	}
	return decodeU32LEBytes(b), nil
}

func decodeU32LEBytes(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
