package pricing

import "fmt"

// Method identifies a decoration method. Every method's tier breaks, fees and
// minimums live in its MethodConfig; variant behavior is configuration, not
// per-method code.
type Method string

const (
	MethodEmbroidery       Method = "embroidery"
	MethodCapEmbroidery    Method = "cap-embroidery"
	MethodScreenPrint      Method = "screen-print"
	MethodDTG              Method = "dtg"
	MethodLeatherettePatch Method = "leatherette-patch"
	MethodEmblem           Method = "emblem"
)

// DigitizingTier maps a stitch-count ceiling to a one-time digitizing fee.
// MaxStitches <= 0 catches everything above the last bounded tier.
type DigitizingTier struct {
	MaxStitches int
	Fee         float64
}

// MethodConfig holds everything quote pricing needs to know about one
// decoration method.
type MethodConfig struct {
	Method   Method
	IDPrefix string // quote ID prefix, e.g. EMB0828-3

	Tiers []Tier

	// Less-than-minimum policy: a flat fee when quantity is under threshold.
	LTMThreshold int
	LTMFee       float64

	// Embroidery thread colors included in the base price; each extra color
	// is ExtraColorRate per unit.
	IncludedColors int
	ExtraColorRate float64

	HeavyweightSurcharge float64

	// One-time fees.
	ScreenFee        float64 // per screen, screen print only
	GraphicDesignFee float64
	PatchSetupFee    float64
	DigitizingTiers  []DigitizingTier

	// Static price matrices for methods not served by the per-style pricing
	// bundle. Cap embroidery keys a full profile per front-logo stitch count;
	// screen print keys columns by effective color count.
	StitchProfiles     map[int]map[string]map[string]float64
	DefaultStitchCount int
	StaticPrices       map[string]map[string]float64
	Rounding           RoundingMethod

	// PriceByColorCount prices a unit as the sum of every print location's
	// color column instead of a single size column (screen print).
	PriceByColorCount bool

	// Size column used when the request does not carry one (OSFA for caps).
	DefaultSize string
}

// DigitizingFee resolves the one-time digitizing fee for a design's stitch
// count.
func (c MethodConfig) DigitizingFee(stitchCount int) float64 {
	for _, tier := range c.DigitizingTiers {
		if tier.MaxStitches <= 0 || stitchCount <= tier.MaxStitches {
			return tier.Fee
		}
	}
	return 0
}

// StaticTable materializes the method's config-defined price matrix. For cap
// embroidery a stitch-count change swaps the entire profile, it is not a
// per-stitch delta.
func (c MethodConfig) StaticTable(stitchCount int) (*PriceTable, error) {
	if len(c.StitchProfiles) > 0 {
		if stitchCount == 0 {
			stitchCount = c.DefaultStitchCount
		}
		profile, ok := c.StitchProfiles[stitchCount]
		if !ok {
			return nil, fmt.Errorf("%w: no %s price profile for %d stitches", ErrMalformedPriceTable, c.Method, stitchCount)
		}
		return NewStaticTable(c.Method, c.Tiers, profile, c.Rounding, c.DefaultSize)
	}
	if len(c.StaticPrices) > 0 {
		return NewStaticTable(c.Method, c.Tiers, c.StaticPrices, c.Rounding, c.DefaultSize)
	}
	return nil, fmt.Errorf("%w: method %s has no static prices, fetch a pricing bundle", ErrMalformedPriceTable, c.Method)
}

// DefaultMethods returns the production method registry. Tier breaks, LTM
// thresholds and fee amounts match the shop's published price lists.
func DefaultMethods() map[Method]MethodConfig {
	return map[Method]MethodConfig{
		MethodEmbroidery: {
			Method:   MethodEmbroidery,
			IDPrefix: "EMB",
			Tiers: []Tier{
				{Label: "24-47", MinQty: 24, MaxQty: 47},
				{Label: "48-71", MinQty: 48, MaxQty: 71},
				{Label: "72+", MinQty: 72},
			},
			LTMThreshold:         24,
			LTMFee:               50,
			IncludedColors:       4,
			ExtraColorRate:       1,
			HeavyweightSurcharge: 10,
			GraphicDesignFee:     75,
			DigitizingTiers: []DigitizingTier{
				{MaxStitches: 5000, Fee: 50},
				{MaxStitches: 8000, Fee: 75},
				{Fee: 100},
			},
		},
		MethodCapEmbroidery: {
			Method:   MethodCapEmbroidery,
			IDPrefix: "CAP",
			Tiers: []Tier{
				{Label: "24-47", MinQty: 24, MaxQty: 47},
				{Label: "48-71", MinQty: 48, MaxQty: 71},
				{Label: "72+", MinQty: 72},
			},
			LTMThreshold:     24,
			LTMFee:           50,
			GraphicDesignFee: 75,
			DigitizingTiers:  []DigitizingTier{{Fee: 100}},
			StitchProfiles: map[int]map[string]map[string]float64{
				5000: {
					"24-47": {"OSFA": 23},
					"48-71": {"OSFA": 22},
					"72+":   {"OSFA": 20},
				},
				8000: {
					"24-47": {"OSFA": 24},
					"48-71": {"OSFA": 23},
					"72+":   {"OSFA": 21},
				},
				10000: {
					"24-47": {"OSFA": 25},
					"48-71": {"OSFA": 24},
					"72+":   {"OSFA": 22},
				},
			},
			DefaultStitchCount: 8000,
			Rounding:           RoundHalfDollarUp,
			DefaultSize:        "OSFA",
		},
		MethodScreenPrint: {
			Method:   MethodScreenPrint,
			IDPrefix: "SPC",
			Tiers: []Tier{
				{Label: "24-71", MinQty: 24, MaxQty: 71},
				{Label: "72-143", MinQty: 72, MaxQty: 143},
				{Label: "144-287", MinQty: 144, MaxQty: 287},
				{Label: "288-499", MinQty: 288, MaxQty: 499},
				{Label: "500+", MinQty: 500},
			},
			// The whole first tier pays the LTM fee; sub-24 runs are not
			// offered at all.
			LTMThreshold:         72,
			LTMFee:               100,
			ScreenFee:            30,
			GraphicDesignFee:     75,
			HeavyweightSurcharge: 10,
			// Customer-supplied garment matrix, columns keyed by effective
			// color count (underbase included).
			StaticPrices: map[string]map[string]float64{
				"24-71":   {"1": 6.25, "2": 8.00, "3": 10.00, "4": 11.75, "5": 13.75, "6": 15.50},
				"72-143":  {"1": 3.25, "2": 4.00, "3": 4.75, "4": 5.50, "5": 6.25, "6": 7.00},
				"144-287": {"1": 2.50, "2": 3.00, "3": 3.75, "4": 4.25, "5": 5.00, "6": 5.50},
				"288-499": {"1": 2.00, "2": 2.50, "3": 2.75, "4": 3.25, "5": 3.50, "6": 4.00},
				"500+":    {"1": 1.75, "2": 2.00, "3": 2.25, "4": 2.50, "5": 2.75, "6": 3.00},
			},
			// The combined front+back per-shirt cost rounds up to the whole
			// dollar.
			Rounding:          RoundCeilDollar,
			PriceByColorCount: true,
		},
		MethodDTG: {
			Method:   MethodDTG,
			IDPrefix: "DTG",
			Tiers: []Tier{
				{Label: "24-47", MinQty: 24, MaxQty: 47},
				{Label: "48-71", MinQty: 48, MaxQty: 71},
				{Label: "72+", MinQty: 72},
			},
			LTMThreshold:         24,
			LTMFee:               50,
			HeavyweightSurcharge: 10,
			GraphicDesignFee:     75,
		},
		MethodLeatherettePatch: {
			Method:   MethodLeatherettePatch,
			IDPrefix: "PATCH",
			Tiers: []Tier{
				{Label: "6-23", MinQty: 6, MaxQty: 23},
				{Label: "24-71", MinQty: 24, MaxQty: 71},
				{Label: "72-143", MinQty: 72, MaxQty: 143},
				{Label: "144-287", MinQty: 144, MaxQty: 287},
				{Label: "288+", MinQty: 288},
			},
			LTMThreshold:  24,
			LTMFee:        50,
			PatchSetupFee: 50,
		},
		MethodEmblem: {
			Method:   MethodEmblem,
			IDPrefix: "PC",
			Tiers: []Tier{
				{Label: "25-49", MinQty: 25, MaxQty: 49},
				{Label: "50-99", MinQty: 50, MaxQty: 99},
				{Label: "100-199", MinQty: 100, MaxQty: 199},
				{Label: "200-299", MinQty: 200, MaxQty: 299},
				{Label: "300-499", MinQty: 300, MaxQty: 499},
				{Label: "500-999", MinQty: 500, MaxQty: 999},
				{Label: "1000-1999", MinQty: 1000, MaxQty: 1999},
				{Label: "2000-4999", MinQty: 2000, MaxQty: 4999},
				{Label: "5000-9999", MinQty: 5000, MaxQty: 9999},
				{Label: "10000+", MinQty: 10000},
			},
			LTMThreshold:     200,
			LTMFee:           50,
			GraphicDesignFee: 75,
			DigitizingTiers:  []DigitizingTier{{Fee: 100}},
		},
	}
}
