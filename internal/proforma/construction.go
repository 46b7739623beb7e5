package proforma

import (
	"fmt"
	"math"
	"strings"
)

// ConstructionBudget is the cost build-up of the development.
type ConstructionBudget struct {
	Mode                  CostingMode `json:"mode"`
	GFAM2                 float64     `json:"gfa_m2"`
	HardCosts             float64     `json:"hard_costs"`
	SoftFees              float64     `json:"soft_fees"`
	Contingency           float64     `json:"contingency"`
	ConstructionOnlyCapex float64     `json:"construction_only_capex"`
	AmenitiesCapex        float64     `json:"amenities_capex"`
	ParkingCapex          float64     `json:"parking_capex"`
	TotalCapex            float64     `json:"total_capex"`
	SCurve                [3]float64  `json:"s_curve"`
}

// ComputeConstructionBudget prices hard costs in the configured costing mode,
// then layers soft fees, contingency, amenities and parking on top.
func ComputeConstructionBudget(c ConstructionParams, site SiteParams, units []UnitRecord, parking Parking) (ConstructionBudget, error) {
	efficiency := pct(site.BuildingEfficiencyPct)
	budget := ConstructionBudget{
		Mode:           c.Costing.Mode(),
		AmenitiesCapex: c.AmenitiesCapex,
		ParkingCapex:   parking.Capex,
	}
	for i, p := range c.SCurvePct {
		budget.SCurve[i] = pct(p)
	}

	switch budget.Mode {
	case CostingBlended:
		var gla float64
		for _, u := range units {
			gla += u.SurfaceM2
		}
		budget.GFAM2 = gla * (1 + (100-site.BuildingEfficiencyPct)/100)
		budget.HardCosts = c.Costing.Blended.PerM2() * budget.GFAM2
	case CostingAssetClass:
		for _, row := range c.Costing.AssetClass.CostTable {
			gfa := assetClassGFA(row.AssetClass, units, efficiency)
			budget.GFAM2 += gfa
			budget.HardCosts += gfa * row.CostPerM2
		}
	default:
		return ConstructionBudget{}, invalid("construction.costing", "exactly one of blended or asset_class must be set")
	}

	softPct := pct(c.ArchitectFeePct + c.DevelopmentFeePct + c.MarketingFeePct)
	budget.SoftFees = budget.HardCosts*softPct + c.PermitFee
	budget.Contingency = pct(c.ContingencyPct) * (budget.HardCosts + budget.SoftFees)
	budget.ConstructionOnlyCapex = budget.HardCosts + budget.SoftFees + budget.Contingency
	budget.TotalCapex = budget.ConstructionOnlyCapex + budget.AmenitiesCapex + budget.ParkingCapex
	return budget, nil
}

// assetClassGFA grosses up the GLA of units whose asset class contains tag.
func assetClassGFA(tag string, units []UnitRecord, efficiency float64) float64 {
	if efficiency == 0 {
		return 0
	}
	needle := strings.ToLower(tag)
	var gla float64
	for _, u := range units {
		if strings.Contains(strings.ToLower(u.AssetClass), needle) {
			gla += u.SurfaceM2
		}
	}
	return gla / efficiency
}

// Disbursement is the CAPEX drawn in the given year. Only years 1..3 draw.
func (b ConstructionBudget) Disbursement(year int) float64 {
	if year < 1 || year > len(b.SCurve) {
		return 0
	}
	return b.TotalCapex * b.SCurve[year-1]
}

// SCurveWarning describes an S-curve that does not spend exactly the budget.
// The curve is never normalized; a mismatch is reported, not corrected.
func (b ConstructionBudget) SCurveWarning() string {
	var sum float64
	for _, s := range b.SCurve {
		sum += s
	}
	if math.Abs(sum-1) <= 1e-9 {
		return ""
	}
	return fmt.Sprintf("disbursement curve sums to %.2f%% of CAPEX, not 100%%", sum*100)
}
