// Package pricing is the quote pricing engine: tier resolution, base price
// lookup, surcharges, setup fees and rounding for every decoration method the
// shop quotes. It is pure computation (no I/O, no shared state) and safe to
// call concurrently on every input change.
package pricing

import (
	"fmt"
	"strconv"
)

// QuoteRequest is one line to price.
type QuoteRequest struct {
	Method      Method
	StyleNumber string
	Quantity    int
	Size        string // empty for OSFA methods
	Options     Options
}

// QuoteResult is the priced line. It is derived, never stored by the engine,
// and recomputed on every request.
type QuoteResult struct {
	Method      Method `json:"method"`
	StyleNumber string `json:"styleNumber,omitempty"`
	Quantity    int    `json:"quantity"`
	PricingTier string `json:"pricingTier"`

	BaseUnitPrice  float64    `json:"baseUnitPrice"`
	SurchargeTotal float64    `json:"surchargeTotal"`
	UnitPrice      float64    `json:"unitPrice"`
	SetupFees      []SetupFee `json:"setupFees,omitempty"`
	SetupFeeTotal  float64    `json:"setupFeeTotal"`
	LTMFee         float64    `json:"ltmFee"`
	LineTotal      float64    `json:"lineTotal"`
}

// HasLTM reports whether the less-than-minimum fee applied.
func (r *QuoteResult) HasLTM() bool {
	return r.LTMFee > 0
}

// Engine prices quote requests against a method registry. It holds immutable
// configuration only; identical inputs always produce identical results.
type Engine struct {
	methods map[Method]MethodConfig
}

// NewEngine builds an engine and validates every registered tier table up
// front, so a broken method configuration fails at startup rather than on the
// first quote.
func NewEngine(methods map[Method]MethodConfig) (*Engine, error) {
	for method, cfg := range methods {
		if err := ValidateTiers(cfg.Tiers); err != nil {
			return nil, fmt.Errorf("method %s: %w", method, err)
		}
	}
	return &Engine{methods: methods}, nil
}

// Methods exposes the registry, keyed by method name.
func (e *Engine) Methods() map[Method]MethodConfig {
	return e.methods
}

// Config returns the configuration for a method.
func (e *Engine) Config(method Method) (MethodConfig, error) {
	cfg, ok := e.methods[method]
	if !ok {
		return MethodConfig{}, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return cfg, nil
}

// Quote prices a request. table carries per-style prices built from a pricing
// bundle; pass nil for methods priced from their static config matrix (cap
// embroidery, customer-supplied screen print).
func (e *Engine) Quote(req QuoteRequest, table *PriceTable) (*QuoteResult, error) {
	cfg, err := e.Config(req.Method)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, req.Quantity)
	}

	if table == nil {
		table, err = cfg.StaticTable(req.Options.StitchCount)
		if err != nil {
			return nil, err
		}
	}

	tier, err := ResolveTier(table.Tiers, req.Quantity)
	if err != nil {
		return nil, err
	}

	base, err := basePrice(cfg, req, table, tier.Label)
	if err != nil {
		return nil, err
	}

	// The base is already on its rounding step: garment tables round when
	// their decorated prices are derived, color-count methods round the
	// combined per-shirt cost in colorColumnPrice. Surcharges are
	// whole-dollar steps and stack without re-rounding, so published matrix
	// prices ($4.25 a unit) survive intact.
	surcharge := ComputeSurcharges(cfg, req.Options)
	unit := base + surcharge

	fees := ComputeSetupFees(cfg, req.Options)
	setupTotal := SetupFeeTotal(fees)

	var ltm float64
	if cfg.LTMThreshold > 0 && req.Quantity < cfg.LTMThreshold {
		ltm = cfg.LTMFee
	}

	return &QuoteResult{
		Method:         req.Method,
		StyleNumber:    req.StyleNumber,
		Quantity:       req.Quantity,
		PricingTier:    tier.Label,
		BaseUnitPrice:  base,
		SurchargeTotal: surcharge,
		UnitPrice:      unit,
		SetupFees:      fees,
		SetupFeeTotal:  setupTotal,
		LTMFee:         ltm,
		LineTotal:      LineTotal(unit, req.Quantity, setupTotal, ltm),
	}, nil
}

// basePrice resolves the per-unit decorated price before surcharges. Methods
// that price by color count sum every print location; the rest read a single
// size column, falling back to the method default (OSFA for caps) when the
// request carries none.
func basePrice(cfg MethodConfig, req QuoteRequest, table *PriceTable, tierLabel string) (float64, error) {
	if cfg.PriceByColorCount {
		return colorColumnPrice(table, tierLabel, req.Options)
	}
	size := req.Size
	if size == "" {
		size = cfg.DefaultSize
	}
	return table.BasePrice(tierLabel, size)
}

// colorColumnPrice sums each printing location's color-column price into one
// per-shirt cost and rounds the combined figure. The front location's column
// includes the dark-garment underbase; further locations read their raw color
// count.
func colorColumnPrice(table *PriceTable, tierLabel string, o Options) (float64, error) {
	var total float64
	printed := false

	for i, loc := range o.Locations {
		colors := ScreensAt(loc, UnderbaseAt(o, i))
		if colors == 0 {
			continue
		}
		price, err := table.BasePrice(tierLabel, strconv.Itoa(colors))
		if err != nil {
			return 0, err
		}
		total += price
		printed = true
	}
	if !printed {
		return 0, fmt.Errorf("%w: no print colors selected", ErrSizeNotFound)
	}
	return table.Rounding.Apply(total), nil
}
