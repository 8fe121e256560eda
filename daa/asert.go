package daa

import "math/big"

// asertR is the fixed-point base R = 2^16 used throughout ASERT-lite.
const asertR int64 = 1 << 16

// asertLn2Scaled is round(ln(2) * R).
const asertLn2Scaled int64 = 45426

// updateASERT (0x02) retargets every block using the absolute-scheduled
// exponential-decay formula: ln(2) is folded into the exponent and the
// exponential itself is a fixed-point Taylor expansion of e^x (fxExp)
// instead of a floating-point exponential.
func updateASERT(state State, newHeight, newTime uint64) (State, uint64, error) {
	timeDelta := int64(newTime) - int64(state.AnchorTime)
	heightDelta := int64(newHeight) - int64(state.AnchorHeight)
	expected := heightDelta * int64(state.TargetBlockTime)

	halfLife := int64(state.HalfLife)
	denom := halfLife
	if denom == 0 {
		denom = 1
	}

	exponent := (timeDelta - expected) * asertLn2Scaled / denom
	factor := fxExp(exponent)

	next := mulDivSigned(int64(state.Difficulty), factor, asertR)
	if next < 1 {
		next = 1
	}

	if state.Asymptote > 0 {
		a := int64(state.Asymptote)
		if next > a {
			next = a + (next-a)/2
		}
	}

	nextU := uint64(next)
	state.Difficulty = nextU
	state.LastHeight, state.LastTimestamp = newHeight, newTime
	return state, nextU, nil
}

// fxExp approximates e^(x/R) in R-scaled fixed point via the three-term
// Taylor expansion the spec mandates, clamping its argument to ±4R first so
// the series stays well-behaved at the tails.
func fxExp(x int64) int64 {
	if x > 4*asertR {
		x = 4 * asertR
	}
	if x < -4*asertR {
		x = -4 * asertR
	}

	r := big.NewInt(asertR)
	xb := big.NewInt(x)

	// R + x + x^2/(2R) + x^3/(6R^2)
	term1 := new(big.Int).Set(xb)

	x2 := new(big.Int).Mul(xb, xb)
	term2 := new(big.Int).Quo(x2, new(big.Int).Mul(big.NewInt(2), r))

	x3 := new(big.Int).Mul(x2, xb)
	term3 := new(big.Int).Quo(x3, new(big.Int).Mul(big.NewInt(6), new(big.Int).Mul(r, r)))

	out := new(big.Int).Add(r, term1)
	out.Add(out, term2)
	out.Add(out, term3)
	return out.Int64()
}

// mulDivSigned computes floor(a*b/c) with arbitrary precision over signed
// inputs, used for the ASERT scaling step where intermediate products can
// exceed int64 range.
func mulDivSigned(a, b, c int64) int64 {
	if c == 0 {
		c = 1
	}
	num := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	den := big.NewInt(c)
	return new(big.Int).Quo(num, den).Int64()
}
