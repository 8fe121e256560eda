package daa

// epochPrecision is P in the spec's fixed-point epoch formula.
const epochPrecision = 1_000_000

// updateEpoch (0x01) re-targets only at epoch boundaries. Off-boundary
// heights return the current difficulty unchanged.
func updateEpoch(state State, newHeight, newTime uint64) (State, uint64, error) {
	if state.EpochLength == 0 || newHeight%state.EpochLength != 0 {
		state.LastHeight, state.LastTimestamp = newHeight, newTime
		return state, clampMinOne(state.Difficulty), nil
	}

	expected := state.EpochLength * state.TargetBlockTime
	actual := uint64(1)
	if newTime > state.EpochStartTime {
		actual = newTime - state.EpochStartTime
	}

	maxAdj := state.MaxAdjustment
	if maxAdj == 0 {
		maxAdj = 4
	}

	adjScaled := mulDivBig(expected, epochPrecision, actual)
	adjScaled = clampUint64(adjScaled, epochPrecision/maxAdj, epochPrecision*maxAdj)

	next := clampMinOne(mulDivBig(state.Difficulty, adjScaled, epochPrecision))

	state.Difficulty = next
	state.LastHeight, state.LastTimestamp = newHeight, newTime
	state.EpochStartTime = newTime
	state.EpochStartHeight = newHeight
	return state, next, nil
}
