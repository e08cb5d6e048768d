package pricing

import (
	"fmt"
	"sort"
)

// Tier is a quantity break. Bounds are inclusive on both ends; MaxQty <= 0
// marks the last, open-ended tier ("72+", "500+", ...).
type Tier struct {
	Label  string
	MinQty int
	MaxQty int
}

// Contains reports whether qty falls inside the tier's bounds.
func (t Tier) Contains(qty int) bool {
	if qty < t.MinQty {
		return false
	}
	return t.MaxQty <= 0 || qty <= t.MaxQty
}

// ValidateTiers checks that tiers form contiguous, non-overlapping quantity
// ranges with an open-ended final tier. Orders below the first tier's minimum
// are still quotable: they price at the first tier and pick up the LTM fee.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: no tiers defined", ErrMalformedPriceTable)
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinQty < sorted[j].MinQty })

	for i, tier := range sorted {
		last := i == len(sorted)-1

		if tier.MinQty <= 0 {
			return fmt.Errorf("%w: tier %q has non-positive MinQty %d", ErrMalformedPriceTable, tier.Label, tier.MinQty)
		}
		if last {
			if tier.MaxQty > 0 {
				return fmt.Errorf("%w: last tier %q must be open-ended", ErrMalformedPriceTable, tier.Label)
			}
			continue
		}
		if tier.MaxQty <= 0 {
			return fmt.Errorf("%w: tier %q is open-ended but not last", ErrMalformedPriceTable, tier.Label)
		}
		if tier.MaxQty < tier.MinQty {
			return fmt.Errorf("%w: tier %q has MaxQty below MinQty", ErrMalformedPriceTable, tier.Label)
		}
		if next := sorted[i+1]; next.MinQty != tier.MaxQty+1 {
			return fmt.Errorf("%w: gap or overlap between tiers %q and %q", ErrMalformedPriceTable, tier.Label, next.Label)
		}
	}

	return nil
}

// ResolveTier maps a quantity to its tier. Quantities below the first tier's
// minimum resolve to the first tier; the LTM fee covers the shortfall.
func ResolveTier(tiers []Tier, qty int) (Tier, error) {
	if qty <= 0 {
		return Tier{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if len(tiers) == 0 {
		return Tier{}, fmt.Errorf("%w: empty tier table", ErrUnknownMethod)
	}

	for _, tier := range tiers {
		if tier.Contains(qty) {
			return tier, nil
		}
	}

	// Below the smallest break.
	first := tiers[0]
	for _, tier := range tiers[1:] {
		if tier.MinQty < first.MinQty {
			first = tier
		}
	}
	if qty < first.MinQty {
		return first, nil
	}

	return Tier{}, fmt.Errorf("%w: no tier covers quantity %d", ErrMalformedPriceTable, qty)
}
