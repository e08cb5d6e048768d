package pricing

import (
	"math"
	"testing"
)

func TestHalfDollarUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{10.00, 10.00}, // exact halves pass through
		{10.50, 10.50},
		{10.01, 10.50},
		{10.49, 10.50},
		{10.51, 11.00},
		{9.99, 10.00},
		{22.500000000000004, 22.50}, // float noise must not bump a half step
	}
	for _, tc := range cases {
		if got := RoundHalfDollarUp.Apply(tc.in); got != tc.want {
			t.Errorf("HalfDollarUp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestHalfDollarUp_AlwaysHalfMultiple(t *testing.T) {
	for price := 0.01; price < 50; price += 0.07 {
		got := RoundHalfDollarUp.Apply(price)
		if got+1e-9 < price {
			t.Fatalf("HalfDollarUp(%v) = %v decreased the price", price, got)
		}
		if rem := math.Mod(got*2, 1); rem > 1e-9 && rem < 1-1e-9 {
			t.Fatalf("HalfDollarUp(%v) = %v is not a multiple of 0.50", price, got)
		}
	}
}

func TestCeilDollar(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{10.00, 10.00},
		{10.01, 11.00},
		{10.99, 11.00},
		{16.649999999999999, 17.00},
	}
	for _, tc := range cases {
		if got := RoundCeilDollar.Apply(tc.in); got != tc.want {
			t.Errorf("CeilDollar(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseRoundingMethod(t *testing.T) {
	if _, err := ParseRoundingMethod("HalfDollarUp"); err != nil {
		t.Errorf("HalfDollarUp: %v", err)
	}
	if _, err := ParseRoundingMethod("CeilDollar"); err != nil {
		t.Errorf("CeilDollar: %v", err)
	}
	// No silent defaults: missing or unknown rules are malformed tables.
	for _, s := range []string{"", "RoundDown", "halfdollarup"} {
		if _, err := ParseRoundingMethod(s); err == nil {
			t.Errorf("ParseRoundingMethod(%q): expected error", s)
		}
	}
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(12.50, 48, 180, 0)
	if want := 780.0; got != want {
		t.Errorf("LineTotal = %v, want %v", got, want)
	}

	// LTM is charged once per line, never per unit.
	withLTM := LineTotal(12.50, 20, 0, 50)
	if want := 300.0; withLTM != want {
		t.Errorf("LineTotal with LTM = %v, want %v", withLTM, want)
	}
}
