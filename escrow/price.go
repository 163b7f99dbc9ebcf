package escrow

import (
	"cosmossdk.io/math"
)

// priceCompatible reports whether two orders' declared rates agree within
// both slippage bounds. Rates are quoted as wanted-per-escrowed on each side,
// so for a perfectly agreeing pair their product is one. The deviation
// |1 - rA*rB| is symmetric in which side initiates and grows monotonically
// with disagreement, so a settlement can never land outside either party's
// declared tolerance.
func priceCompatible(rateA, slipA, rateB, slipB math.LegacyDec) bool {
	dev := math.LegacyOneDec().Sub(rateA.Mul(rateB)).Abs()
	return dev.LTE(slipA) && dev.LTE(slipB)
}

// convertAmount converts an escrowed quantity into counterpart units at the
// quoting order's rate, truncating toward zero.
func convertAmount(q math.Int, rate math.LegacyDec) math.Int {
	return rate.MulInt(q).TruncateInt()
}

// feeCut truncates amount*num/denom toward zero. A zero numerator or
// denominator means no fee.
func feeCut(amount math.Int, num, denom uint64) math.Int {
	if num == 0 || denom == 0 {
		return math.ZeroInt()
	}
	return amount.MulRaw(int64(num)).QuoRaw(int64(denom))
}
