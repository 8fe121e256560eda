package daa

// lwmaPrecision is P in the spec's LWMA formula.
const lwmaPrecision = 1_000_000

// updateLWMA (0x03) computes a linearly weighted mean of recent solve
// times (recent solves weighted more heavily) and scales the current
// difficulty by the ratio of target to observed block time.
func updateLWMA(state State, newHeight, newTime, solveTime uint64) (State, uint64, error) {
	tb := state.TargetBlockTime
	if tb == 0 {
		tb = 1
	}
	cap6 := 6 * tb
	clampedSolve := solveTime
	if clampedSolve < 1 {
		clampedSolve = 1
	}
	if clampedSolve > cap6 {
		clampedSolve = cap6
	}

	times, diffs := pushHistory(state.BlockTimes, state.Difficulties, clampedSolve, state.Difficulty)

	n := state.WindowSize
	if n == 0 {
		n = 1
	}
	avail := uint64(len(times))
	if avail > 0 {
		avail-- // "last min(len(blockTimes)-1, N)"
	}
	window := n
	if avail < window {
		window = avail
	}
	if window == 0 {
		window = 1
	}

	start := uint64(len(times))
	if start > window {
		start -= window
	} else {
		start = 0
	}
	sample := times[start:]
	if uint64(len(sample)) > window {
		sample = sample[uint64(len(sample))-window:]
	}

	var weightedSum, weightTotal uint64
	for i, st := range sample {
		weight := uint64(i + 1)
		weightedSum += st * weight
		weightTotal += weight
	}
	if weightTotal == 0 {
		weightTotal = 1
	}
	weightedMean := weightedSum / weightTotal
	if weightedMean == 0 {
		weightedMean = 1
	}

	adjScaled := mulDivBig(tb, lwmaPrecision, weightedMean)
	adjScaled = clampUint64(adjScaled, lwmaPrecision/3, lwmaPrecision*3)

	next := clampMinOne(mulDivBig(state.Difficulty, adjScaled, lwmaPrecision))

	state.Difficulty = next
	state.LastHeight, state.LastTimestamp = newHeight, newTime
	state.BlockTimes, state.Difficulties = times, diffs
	return state, next, nil
}
