// Package claim implements the claim coordinator: the single-producer
// single-consumer state machine that turns device-verified nonces into
// broadcast claim transactions and reacts to chain subscriptions and
// broadcast failures.
package claim

import (
	"errors"

	"github.com/radiant-core/dmint-miner/adapter"
	"github.com/radiant-core/dmint-miner/algo"
	"github.com/radiant-core/dmint-miner/daa"
)

// ContractState is the coordinator's owned view of a dMint contract: its
// current location, height, immutable parameters, and current DAA state.
// It is exclusively mutated by the coordinator; other components receive
// copies.
type ContractState struct {
	ContractRef [36]byte
	TokenRef    [36]byte

	Height    uint32
	MaxHeight uint64
	Reward    uint64
	AlgoID    algo.AlgoID

	Location adapter.Location

	InputScript  []byte
	OutputScript []byte

	Daa daa.State
}

// ErrContractBurned is reported once Height reaches MaxHeight: the
// contract is terminal and mining must suspend.
var ErrContractBurned = errors.New("claim: contract burned (height == max_height)")

// Burned reports whether s has reached its terminal height.
func (s ContractState) Burned() bool {
	return uint64(s.Height) >= s.MaxHeight
}
