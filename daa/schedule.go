package daa

import "sort"

// updateSchedule (0x04) is a step function: the next difficulty is the
// breakpoint difficulty for the largest h_i ≤ new_height. Per the decision
// recorded for this mode, breakpoints are never interpolated — Schedule is
// a step function in this implementation, not a ramp.
func updateSchedule(state State, newHeight uint64) (State, uint64, error) {
	if err := ValidateSchedule(state.Schedule); err != nil {
		return State{}, 0, err
	}

	next := state.Schedule[0].Difficulty
	for _, bp := range state.Schedule {
		if bp.Height > newHeight {
			break
		}
		next = bp.Difficulty
	}

	state.Difficulty = clampMinOne(next)
	state.LastHeight = newHeight
	return state, state.Difficulty, nil
}

// ValidateSchedule enforces the spec's Schedule validation: non-empty,
// strictly increasing heights, all difficulties positive.
func ValidateSchedule(bps []ScheduleBreakpoint) error {
	if len(bps) == 0 {
		return ErrInvalidSchedule
	}
	if !sort.SliceIsSorted(bps, func(i, j int) bool { return bps[i].Height < bps[j].Height }) {
		return ErrInvalidSchedule
	}
	for i, bp := range bps {
		if bp.Difficulty == 0 {
			return ErrInvalidSchedule
		}
		if i > 0 && bps[i-1].Height == bp.Height {
			return ErrInvalidSchedule
		}
	}
	return nil
}
