package pricing

import "math"

// Location is one print location on a screen print order.
type Location struct {
	Name   string
	Colors int
}

// Options carries the method-specific inputs of a quote request. Zero values
// are identities: an option the caller never set contributes nothing and
// never fails a surcharge rule.
type Options struct {
	// Embroidery.
	StitchCount      int
	ThreadColors     int
	BackLogo         bool
	BackLogoStitches int

	// Screen print.
	Locations   []Location
	DarkGarment bool

	// Garment.
	Heavyweight bool

	// One-time services.
	NewDesign     bool
	GraphicDesign bool
}

// BackLogoSurcharge is the per-unit charge for an enabled cap back logo:
// one dollar per thousand stitches, rounded up.
func BackLogoSurcharge(o Options) float64 {
	if !o.BackLogo || o.BackLogoStitches <= 0 {
		return 0
	}
	return math.Ceil(float64(o.BackLogoStitches) / 1000)
}

// ComputeSurcharges sums the per-unit surcharges for a method's options.
// Rules compose additively and the result is deterministic for identical
// options.
func ComputeSurcharges(cfg MethodConfig, o Options) float64 {
	var total float64

	total += BackLogoSurcharge(o)

	if cfg.IncludedColors > 0 && o.ThreadColors > cfg.IncludedColors {
		total += float64(o.ThreadColors-cfg.IncludedColors) * cfg.ExtraColorRate
	}

	if o.Heavyweight {
		total += cfg.HeavyweightSurcharge
	}

	return total
}

// ScreensAt returns the screen count for one location: its colors plus an
// underbase screen when one is requested, but only when the location prints
// at all. The shop burns an underbase for the front location alone; back and
// sleeve prints run on the garment directly.
func ScreensAt(loc Location, underbase bool) int {
	if loc.Colors <= 0 {
		return 0
	}
	if underbase {
		return loc.Colors + 1
	}
	return loc.Colors
}

// UnderbaseAt reports whether a location gets the dark-garment underbase:
// only the first (front) location, and only when it prints.
func UnderbaseAt(o Options, index int) bool {
	return o.DarkGarment && index == 0 && o.Locations[index].Colors > 0
}
