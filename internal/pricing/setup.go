package pricing

import "fmt"

// SetupFeeKind classifies one-time production tooling charges.
type SetupFeeKind string

const (
	FeeScreen        SetupFeeKind = "screen"
	FeeDigitizing    SetupFeeKind = "digitizing"
	FeePatchSetup    SetupFeeKind = "patch-setup"
	FeeGraphicDesign SetupFeeKind = "graphic-design"
)

// SetupFee is one attributed setup charge. The breakdown keeps enough detail
// for a customer-facing "why was I charged this" line, not just a total.
type SetupFee struct {
	Kind        SetupFeeKind `json:"kind"`
	Description string       `json:"description"`
	UnitCost    float64      `json:"unitCost"`
	Count       int          `json:"count"`
}

// Total is UnitCost times Count.
func (f SetupFee) Total() float64 {
	return f.UnitCost * float64(f.Count)
}

// SetupFeeTotal sums a breakdown.
func SetupFeeTotal(fees []SetupFee) float64 {
	var total float64
	for _, f := range fees {
		total += f.Total()
	}
	return total
}

// ComputeSetupFees builds the one-time fee breakdown for a quote. Fees never
// depend on quantity. Screen print charges per screen per location; dark
// garments add one underbase screen for the front location only.
func ComputeSetupFees(cfg MethodConfig, o Options) []SetupFee {
	var fees []SetupFee

	if cfg.ScreenFee > 0 {
		for i, loc := range o.Locations {
			underbase := UnderbaseAt(o, i)
			screens := ScreensAt(loc, underbase)
			if screens == 0 {
				continue
			}
			desc := fmt.Sprintf("%d-color screens", loc.Colors)
			if underbase {
				desc = fmt.Sprintf("%d-color screens + underbase", loc.Colors)
			}
			if loc.Name != "" {
				desc = loc.Name + ": " + desc
			}
			fees = append(fees, SetupFee{
				Kind:        FeeScreen,
				Description: desc,
				UnitCost:    cfg.ScreenFee,
				Count:       screens,
			})
		}
	}

	if o.NewDesign {
		if fee := cfg.DigitizingFee(o.StitchCount); fee > 0 {
			fees = append(fees, SetupFee{
				Kind:        FeeDigitizing,
				Description: "digitizing, new design",
				UnitCost:    fee,
				Count:       1,
			})
		}
		if cfg.PatchSetupFee > 0 {
			fees = append(fees, SetupFee{
				Kind:        FeePatchSetup,
				Description: "patch die setup",
				UnitCost:    cfg.PatchSetupFee,
				Count:       1,
			})
		}
	}

	if o.GraphicDesign && cfg.GraphicDesignFee > 0 {
		fees = append(fees, SetupFee{
			Kind:        FeeGraphicDesign,
			Description: "graphic design",
			UnitCost:    cfg.GraphicDesignFee,
			Count:       1,
		})
	}

	return fees
}
