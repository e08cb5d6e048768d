package pricing

import (
	"fmt"
	"math"
)

// RoundingMethod names one of the rounding rules carried in the pricing
// bundle's rulesR payload.
type RoundingMethod string

const (
	// RoundHalfDollarUp rounds up to the nearest $0.50. Exact halves pass
	// through unchanged.
	RoundHalfDollarUp RoundingMethod = "HalfDollarUp"
	// RoundCeilDollar rounds up to the nearest whole dollar.
	RoundCeilDollar RoundingMethod = "CeilDollar"
)

// ParseRoundingMethod validates the rounding rule from upstream data. There is
// no silent default here: a price table without an explicit rule is malformed.
func ParseRoundingMethod(s string) (RoundingMethod, error) {
	switch RoundingMethod(s) {
	case RoundHalfDollarUp:
		return RoundHalfDollarUp, nil
	case RoundCeilDollar:
		return RoundCeilDollar, nil
	case "":
		return "", fmt.Errorf("%w: missing rounding method", ErrMalformedPriceTable)
	default:
		return "", fmt.Errorf("%w: unknown rounding method %q", ErrMalformedPriceTable, s)
	}
}

// Apply rounds a raw unit price. An unset method falls back to HalfDollarUp,
// matching the behavior of prices that were already rounded at table build.
func (m RoundingMethod) Apply(price float64) float64 {
	switch m {
	case RoundCeilDollar:
		return math.Ceil(price - centEpsilon)
	default:
		return math.Ceil(price*2-centEpsilon) / 2
	}
}

// centEpsilon keeps float noise (e.g. 22.500000000000004) from bumping an
// exact boundary up a full rounding step.
const centEpsilon = 1e-9

// LineTotal aggregates a quote line: decorated units plus one-time fees.
func LineTotal(unitPrice float64, qty int, setupFeeTotal, ltmFee float64) float64 {
	return unitPrice*float64(qty) + setupFeeTotal + ltmFee
}
