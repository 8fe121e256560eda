package daa

// updateFixed (0x00) returns the anchor difficulty unchanged.
func updateFixed(state State) (State, uint64, error) {
	state.Difficulty = clampMinOne(state.Difficulty)
	return state, state.Difficulty, nil
}
