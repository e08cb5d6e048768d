package pricing

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultMethods())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestQuote_EmbroideryGarment(t *testing.T) {
	engine := newTestEngine(t)

	table, err := BuildGarmentTable(garmentBundle())
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Quote(QuoteRequest{
		Method:      MethodEmbroidery,
		StyleNumber: "PC61",
		Quantity:    48,
		Size:        "M",
		Options:     Options{StitchCount: 8000},
	}, table)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if result.PricingTier != "48-71" {
		t.Errorf("PricingTier = %q, want 48-71", result.PricingTier)
	}
	// Unit price must come out at or above the raw decorated cost and land on
	// a half-dollar step: 9.99/0.6 + 4.50 = 21.15 → 21.50.
	if raw := 9.99/0.6 + 4.50; result.UnitPrice < raw {
		t.Errorf("UnitPrice %v below decorated cost %v", result.UnitPrice, raw)
	}
	nearlyEqual(t, "UnitPrice", result.UnitPrice, 21.50)
	nearlyEqual(t, "LineTotal", result.LineTotal, 21.50*48)
	if result.HasLTM() {
		t.Error("unexpected LTM fee at quantity 48")
	}
}

func TestQuote_ScreenPrintDarkGarmentScreens(t *testing.T) {
	engine := newTestEngine(t)

	// Front 3 colors on a dark garment gets the underbase screen; the back
	// prints over it with no underbase of its own: (3+1) + 2 = 6 screens.
	opts := Options{
		Locations:   []Location{{Name: "front", Colors: 3}, {Name: "back", Colors: 2}},
		DarkGarment: true,
	}
	fees := ComputeSetupFees(DefaultMethods()[MethodScreenPrint], opts)
	nearlyEqual(t, "setup total", SetupFeeTotal(fees), 6*30)

	if len(fees) != 2 {
		t.Fatalf("breakdown entries = %d, want 2", len(fees))
	}
	if fees[0].Count != 4 || fees[1].Count != 2 {
		t.Errorf("screens per location = %d/%d, want 4/2", fees[0].Count, fees[1].Count)
	}

	result, err := engine.Quote(QuoteRequest{
		Method:   MethodScreenPrint,
		Quantity: 144,
		Options:  opts,
	}, nil)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	// 4-color front column 4.25 plus 2-color back column 3.00, whole-dollar
	// rounded: ceil(7.25) = 8.
	nearlyEqual(t, "UnitPrice", result.UnitPrice, 8)
	nearlyEqual(t, "SetupFeeTotal", result.SetupFeeTotal, 180)
}

func TestQuote_ScreenPrintBackPrintCost(t *testing.T) {
	engine := newTestEngine(t)

	quoteAt := func(opts Options) *QuoteResult {
		result, err := engine.Quote(QuoteRequest{
			Method:   MethodScreenPrint,
			Quantity: 144,
			Options:  opts,
		}, nil)
		if err != nil {
			t.Fatalf("Quote: %v", err)
		}
		return result
	}

	frontOnly := quoteAt(Options{
		Locations: []Location{{Name: "front", Colors: 3}},
	})
	withBack := quoteAt(Options{
		Locations: []Location{{Name: "front", Colors: 3}, {Name: "back", Colors: 2}},
	})

	// Every printed location contributes its column to the per-shirt price:
	// ceil(3.75) = 4 front only, ceil(3.75 + 3.00) = 7 with the back.
	nearlyEqual(t, "front only", frontOnly.UnitPrice, 4)
	nearlyEqual(t, "with back", withBack.UnitPrice, 7)

	if _, err := engine.Quote(QuoteRequest{
		Method:   MethodScreenPrint,
		Quantity: 144,
	}, nil); !errors.Is(err, ErrSizeNotFound) {
		t.Errorf("no print locations: got %v, want ErrSizeNotFound", err)
	}
}

func TestQuote_ScreenPrintLTMThroughFirstTier(t *testing.T) {
	engine := newTestEngine(t)

	quoteAt := func(qty int) *QuoteResult {
		result, err := engine.Quote(QuoteRequest{
			Method:   MethodScreenPrint,
			Quantity: qty,
			Options:  Options{Locations: []Location{{Name: "front", Colors: 2}}},
		}, nil)
		if err != nil {
			t.Fatalf("qty=%d: %v", qty, err)
		}
		return result
	}

	// The whole 24-71 tier carries the fee, not just sub-minimum runs.
	nearlyEqual(t, "qty 48 LTM", quoteAt(48).LTMFee, 100)
	nearlyEqual(t, "qty 71 LTM", quoteAt(71).LTMFee, 100)
	nearlyEqual(t, "qty 72 LTM", quoteAt(72).LTMFee, 0)
}

func TestQuote_ScreenPrintSetupLinearInScreens(t *testing.T) {
	cfg := DefaultMethods()[MethodScreenPrint]

	base := SetupFeeTotal(ComputeSetupFees(cfg, Options{
		Locations: []Location{{Name: "front", Colors: 2}, {Name: "back", Colors: 1}},
	}))
	doubled := SetupFeeTotal(ComputeSetupFees(cfg, Options{
		Locations: []Location{{Name: "front", Colors: 4}, {Name: "back", Colors: 1}},
	}))

	// Doubling one location's colors doubles that location's contribution.
	nearlyEqual(t, "front contribution", doubled-base, 2*cfg.ScreenFee)
}

func TestQuote_CapEmbroideryBackLogo(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Quote(QuoteRequest{
		Method:   MethodCapEmbroidery,
		Quantity: 48,
		Options: Options{
			StitchCount:      8000,
			BackLogo:         true,
			BackLogoStitches: 5000,
		},
	}, nil)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	// ceil(5000/1000) = $5/unit on top of the $23 OSFA 48-71 base.
	nearlyEqual(t, "SurchargeTotal", result.SurchargeTotal, 5)
	nearlyEqual(t, "UnitPrice", result.UnitPrice, 28)
}

func TestQuote_CapEmbroideryStitchProfileSwap(t *testing.T) {
	engine := newTestEngine(t)

	quoteAt := func(stitches int) *QuoteResult {
		result, err := engine.Quote(QuoteRequest{
			Method:   MethodCapEmbroidery,
			Quantity: 24,
			Options:  Options{StitchCount: stitches},
		}, nil)
		if err != nil {
			t.Fatalf("stitches=%d: %v", stitches, err)
		}
		return result
	}

	// Changing stitch count re-resolves the whole profile, not a delta.
	nearlyEqual(t, "5000 stitches", quoteAt(5000).UnitPrice, 23)
	nearlyEqual(t, "8000 stitches", quoteAt(8000).UnitPrice, 24)
	nearlyEqual(t, "10000 stitches", quoteAt(10000).UnitPrice, 25)

	// Unset stitch count falls back to the default profile.
	nearlyEqual(t, "default profile", quoteAt(0).UnitPrice, 24)

	if _, err := engine.Quote(QuoteRequest{
		Method:   MethodCapEmbroidery,
		Quantity: 24,
		Options:  Options{StitchCount: 7500},
	}, nil); !errors.Is(err, ErrMalformedPriceTable) {
		t.Errorf("7500 stitches: got %v, want ErrMalformedPriceTable", err)
	}
}

func TestQuote_LTMFee(t *testing.T) {
	engine := newTestEngine(t)

	table, err := BuildGarmentTable(garmentBundle())
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Quote(QuoteRequest{
		Method:      MethodEmbroidery,
		StyleNumber: "PC61",
		Quantity:    20,
		Size:        "S",
	}, table)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	nearlyEqual(t, "LTMFee", result.LTMFee, 50)
	// Charged once per line, not per unit.
	nearlyEqual(t, "LineTotal", result.LineTotal, result.UnitPrice*20+50)
}

func TestQuote_EmblemLTMThreshold(t *testing.T) {
	engine := newTestEngine(t)
	cfg := DefaultMethods()[MethodEmblem]

	table, err := NewStaticTable(MethodEmblem, cfg.Tiers, emblemPrices(cfg.Tiers), RoundHalfDollarUp, "2.00")
	if err != nil {
		t.Fatal(err)
	}

	under, err := engine.Quote(QuoteRequest{Method: MethodEmblem, Quantity: 199, Size: "2.00"}, table)
	if err != nil {
		t.Fatal(err)
	}
	if !under.HasLTM() {
		t.Error("quantity 199: expected LTM fee")
	}
	nearlyEqual(t, "LTMFee", under.LTMFee, 50)

	over, err := engine.Quote(QuoteRequest{Method: MethodEmblem, Quantity: 200, Size: "2.00"}, table)
	if err != nil {
		t.Fatal(err)
	}
	if over.HasLTM() {
		t.Errorf("quantity 200: unexpected LTM fee %v", over.LTMFee)
	}
}

func emblemPrices(tiers []Tier) map[string]map[string]float64 {
	prices := make(map[string]map[string]float64, len(tiers))
	for i, tier := range tiers {
		prices[tier.Label] = map[string]float64{"2.00": 4.50 - 0.25*float64(i)}
	}
	return prices
}

func TestQuote_HeavyweightSurcharge(t *testing.T) {
	engine := newTestEngine(t)

	table, err := BuildGarmentTable(garmentBundle())
	if err != nil {
		t.Fatal(err)
	}

	plain, err := engine.Quote(QuoteRequest{Method: MethodEmbroidery, Quantity: 72, Size: "M"}, table)
	if err != nil {
		t.Fatal(err)
	}
	heavy, err := engine.Quote(QuoteRequest{
		Method:   MethodEmbroidery,
		Quantity: 72,
		Size:     "M",
		Options:  Options{Heavyweight: true},
	}, table)
	if err != nil {
		t.Fatal(err)
	}

	nearlyEqual(t, "heavyweight delta", heavy.UnitPrice-plain.UnitPrice, 10)
}

func TestQuote_ExtraThreadColors(t *testing.T) {
	cfg := DefaultMethods()[MethodEmbroidery]

	// Four colors are included; the fifth and sixth are $1/unit each.
	nearlyEqual(t, "4 colors", ComputeSurcharges(cfg, Options{ThreadColors: 4}), 0)
	nearlyEqual(t, "6 colors", ComputeSurcharges(cfg, Options{ThreadColors: 6}), 2)
	// Absent option is its identity value, never an error.
	nearlyEqual(t, "unset colors", ComputeSurcharges(cfg, Options{}), 0)
}

func TestQuote_Idempotent(t *testing.T) {
	engine := newTestEngine(t)

	table, err := BuildGarmentTable(garmentBundle())
	if err != nil {
		t.Fatal(err)
	}

	req := QuoteRequest{
		Method:      MethodEmbroidery,
		StyleNumber: "PC61",
		Quantity:    48,
		Size:        "2XL",
		Options:     Options{ThreadColors: 6, NewDesign: true, StitchCount: 8000},
	}

	first, err := engine.Quote(req, table)
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.Quote(req, table)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical requests differ:\n%+v\n%+v", first, second)
	}
}

func TestQuote_UnknownMethod(t *testing.T) {
	engine := newTestEngine(t)
	if _, err := engine.Quote(QuoteRequest{Method: "laser-tumbler", Quantity: 24}, nil); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("got %v, want ErrUnknownMethod", err)
	}
}

func TestQuote_DigitizingFeeTiers(t *testing.T) {
	cfg := DefaultMethods()[MethodEmbroidery]

	nearlyEqual(t, "5000 stitches", cfg.DigitizingFee(5000), 50)
	nearlyEqual(t, "8000 stitches", cfg.DigitizingFee(8000), 75)
	nearlyEqual(t, "12000 stitches", cfg.DigitizingFee(12000), 100)

	fees := ComputeSetupFees(cfg, Options{NewDesign: true, StitchCount: 12000, GraphicDesign: true})
	nearlyEqual(t, "setup total", SetupFeeTotal(fees), 175)
	if len(fees) != 2 {
		t.Fatalf("breakdown entries = %d, want 2", len(fees))
	}
	if fees[0].Kind != FeeDigitizing || fees[1].Kind != FeeGraphicDesign {
		t.Errorf("unexpected breakdown order: %+v", fees)
	}
}
