package daa

import "github.com/radiant-core/dmint-miner/algo"

// TargetFor converts a State's current difficulty to the target
// representation required by format, per "conversion to target uses the
// format dictated by the algorithm."
func TargetFor(format algo.TargetFormat, state State) (uint64, [32]byte) {
	return algo.DifficultyToTarget(format, state.Difficulty)
}
