package pricing

import (
	"fmt"
	"sort"
	"strings"
)

// PriceTable maps (tier label, size label) to a decorated base unit price.
// Tables are built once per style (or taken from static method config) and
// never mutated at quote time.
type PriceTable struct {
	Method      Method
	StyleNumber string
	Tiers       []Tier
	Prices      map[string]map[string]float64 // tier label -> size -> price
	Rounding    RoundingMethod
	BaseSize    string
}

// BasePrice returns the decorated unit price for a tier and size.
func (t *PriceTable) BasePrice(tierLabel, size string) (float64, error) {
	row, ok := t.Prices[tierLabel]
	if !ok {
		return 0, fmt.Errorf("%w: no prices for tier %q", ErrMalformedPriceTable, tierLabel)
	}
	price, ok := row[size]
	if !ok {
		return 0, fmt.Errorf("%w: size %q in tier %q", ErrSizeNotFound, size, tierLabel)
	}
	return price, nil
}

// TierRow mirrors one tiersR entry from the pricing bundle.
type TierRow struct {
	TierLabel         string
	MinQuantity       int
	MaxQuantity       int
	MarginDenominator float64
}

// CostRow mirrors one per-tier decoration cost entry (allEmbroideryCostsR and
// the equivalent arrays for other methods).
type CostRow struct {
	TierLabel string
	Cost      float64
}

// SizeRow mirrors one sizes[] entry from the pricing bundle.
type SizeRow struct {
	Size      string
	Price     float64
	SortOrder int
}

// BundleInput is the decoded pricing bundle a garment table is built from.
type BundleInput struct {
	Method          Method
	StyleNumber     string
	Tiers           []TierRow
	DecorationCosts []CostRow
	Sizes           []SizeRow
	Upcharges       map[string]float64
	RoundingMethod  string
}

// BuildGarmentTable derives a full price table from a pricing bundle.
//
// The decorated price for a tier is the standard garment cost (smallest size)
// divided by the tier's margin denominator, plus the tier's decoration cost,
// rounded per the bundle's rounding rule. Each size then adds its upcharge
// relative to the base size's upcharge, so product lines whose smallest size
// already carries an upcharge (tall-only styles) are not double-charged.
//
// Any missing numeric field is ErrMalformedPriceTable here, not a deferred
// calculation-time failure.
func BuildGarmentTable(in BundleInput) (*PriceTable, error) {
	rounding, err := ParseRoundingMethod(in.RoundingMethod)
	if err != nil {
		return nil, err
	}
	if len(in.Sizes) == 0 {
		return nil, fmt.Errorf("%w: no sizes for style %q", ErrMalformedPriceTable, in.StyleNumber)
	}

	sizes := make([]SizeRow, len(in.Sizes))
	copy(sizes, in.Sizes)
	sort.SliceStable(sizes, func(i, j int) bool { return sizes[i].SortOrder < sizes[j].SortOrder })

	// Standard garment is Small when carried, otherwise the first size.
	standard := sizes[0]
	for _, s := range sizes {
		if strings.EqualFold(s.Size, "S") {
			standard = s
			break
		}
	}
	if standard.Price <= 0 {
		return nil, fmt.Errorf("%w: standard garment %q has no cost", ErrMalformedPriceTable, standard.Size)
	}
	baseUpcharge := in.Upcharges[standard.Size]

	costs := make(map[string]float64, len(in.DecorationCosts))
	for _, c := range in.DecorationCosts {
		costs[c.TierLabel] = c.Cost
	}

	tiers := make([]Tier, 0, len(in.Tiers))
	prices := make(map[string]map[string]float64, len(in.Tiers))

	for _, row := range in.Tiers {
		maxQty := row.MaxQuantity
		if maxQty >= openEndedMaxQty {
			maxQty = 0
		}
		tiers = append(tiers, Tier{Label: row.TierLabel, MinQty: row.MinQuantity, MaxQty: maxQty})

		if row.MarginDenominator <= 0 {
			return nil, fmt.Errorf("%w: tier %q missing margin denominator", ErrMalformedPriceTable, row.TierLabel)
		}
		cost, ok := costs[row.TierLabel]
		if !ok {
			return nil, fmt.Errorf("%w: no decoration cost for tier %q", ErrMalformedPriceTable, row.TierLabel)
		}

		decorated := standard.Price/row.MarginDenominator + cost
		rounded := rounding.Apply(decorated)

		tierPrices := make(map[string]float64, len(sizes))
		for _, s := range sizes {
			tierPrices[s.Size] = rounded + (in.Upcharges[s.Size] - baseUpcharge)
		}
		prices[row.TierLabel] = tierPrices
	}

	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}

	return &PriceTable{
		Method:      in.Method,
		StyleNumber: in.StyleNumber,
		Tiers:       tiers,
		Prices:      prices,
		Rounding:    rounding,
		BaseSize:    standard.Size,
	}, nil
}

// The upstream proxy encodes "no upper bound" as a sentinel like 99999.
const openEndedMaxQty = 99999

// NewStaticTable wraps a config-defined price matrix (cap embroidery stitch
// profiles, customer screen print color columns) in a PriceTable.
func NewStaticTable(method Method, tiers []Tier, prices map[string]map[string]float64, rounding RoundingMethod, baseSize string) (*PriceTable, error) {
	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}
	if _, err := ParseRoundingMethod(string(rounding)); err != nil {
		return nil, err
	}
	for _, tier := range tiers {
		if _, ok := prices[tier.Label]; !ok {
			return nil, fmt.Errorf("%w: no prices for tier %q", ErrMalformedPriceTable, tier.Label)
		}
	}
	return &PriceTable{
		Method:   method,
		Tiers:    tiers,
		Prices:   prices,
		Rounding: rounding,
		BaseSize: baseSize,
	}, nil
}
