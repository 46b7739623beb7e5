package proforma

import (
	"fmt"
	"math"
	"strings"
)

// ProjectParameters is the full, immutable configuration of one scenario.
// Percentages are plain numbers (30 means 30%) and are normalized to
// fractions by the stage that consumes them.
type ProjectParameters struct {
	Site         SiteParams         `json:"site" yaml:"site"`
	Tax          TaxParams          `json:"tax" yaml:"tax"`
	Construction ConstructionParams `json:"construction" yaml:"construction"`
	Financing    FinancingParams    `json:"financing" yaml:"financing"`
	Operation    OperationParams    `json:"operation" yaml:"operation"`
	Exit         ExitParams         `json:"exit" yaml:"exit"`
}

// SiteParams describes the plot and the building envelope.
type SiteParams struct {
	LandAreaM2            float64 `json:"land_area_m2" yaml:"land_area_m2"`
	FootprintRatioPct     float64 `json:"footprint_ratio_pct" yaml:"footprint_ratio_pct"`
	FAR                   float64 `json:"far" yaml:"far"`
	BuildingEfficiencyPct float64 `json:"building_efficiency_pct" yaml:"building_efficiency_pct"`
	Country               string  `json:"country,omitempty" yaml:"country,omitempty"`
	City                  string  `json:"city,omitempty" yaml:"city,omitempty"`
	// FXEURLocal is a static EUR to local currency rate used for reporting only.
	FXEURLocal float64 `json:"fx_eur_local,omitempty" yaml:"fx_eur_local,omitempty"`
}

// TaxParams holds corporate tax and discounting inputs.
type TaxParams struct {
	CorporateTaxRatePct float64 `json:"corporate_tax_rate_pct" yaml:"corporate_tax_rate_pct"`
	TaxHolidayYears     int     `json:"tax_holiday_years" yaml:"tax_holiday_years"`
	DiscountRatePct     float64 `json:"discount_rate_pct" yaml:"discount_rate_pct"`
}

// ConstructionParams holds cost build-up inputs.
type ConstructionParams struct {
	Costing             Costing    `json:"costing" yaml:"costing"`
	ArchitectFeePct     float64    `json:"architect_fee_pct" yaml:"architect_fee_pct"`
	DevelopmentFeePct   float64    `json:"development_fee_pct" yaml:"development_fee_pct"`
	MarketingFeePct     float64    `json:"marketing_fee_pct" yaml:"marketing_fee_pct"`
	ContingencyPct      float64    `json:"contingency_pct" yaml:"contingency_pct"`
	PermitFee           float64    `json:"permit_fee" yaml:"permit_fee"`
	SCurvePct           [3]float64 `json:"s_curve_pct" yaml:"s_curve_pct"`
	AmenitiesCapex      float64    `json:"amenities_capex" yaml:"amenities_capex"`
	ParkingCostPerSpace float64    `json:"parking_cost_per_space" yaml:"parking_cost_per_space"`
}

// FinancingParams holds the senior loan inputs.
type FinancingParams struct {
	DebtAmount        float64 `json:"debt_amount" yaml:"debt_amount"`
	InterestRatePct   float64 `json:"interest_rate_pct" yaml:"interest_rate_pct"`
	LoanTermYears     int     `json:"loan_term_years" yaml:"loan_term_years"`
	GraceYears        int     `json:"grace_years" yaml:"grace_years"`
	ArrangementFeePct float64 `json:"arrangement_fee_pct" yaml:"arrangement_fee_pct"`
	UpfrontFee        float64 `json:"upfront_fee" yaml:"upfront_fee"`
	PrepaymentFeePct  float64 `json:"prepayment_fee_pct" yaml:"prepayment_fee_pct"`
}

// OperationParams holds project-level operating defaults.
type OperationParams struct {
	InflationPct  float64 `json:"inflation_pct" yaml:"inflation_pct"`
	RentGrowthPct float64 `json:"rent_growth_pct" yaml:"rent_growth_pct"`
	// ValueGrowthPct is the default asset appreciation. Nil falls back to inflation.
	ValueGrowthPct *float64 `json:"value_growth_pct,omitempty" yaml:"value_growth_pct,omitempty"`
	OccupancyPct   float64  `json:"occupancy_pct" yaml:"occupancy_pct"`
	OpexPerM2      float64  `json:"opex_per_m2" yaml:"opex_per_m2"`
	PMFeePct       float64  `json:"pm_fee_pct" yaml:"pm_fee_pct"`
}

// ExitParams holds the terminal sale inputs.
type ExitParams struct {
	HoldingPeriodYears int     `json:"holding_period_years" yaml:"holding_period_years"`
	ExitYieldPct       float64 `json:"exit_yield_pct" yaml:"exit_yield_pct"`
	TransactionFeePct  float64 `json:"transaction_fee_pct" yaml:"transaction_fee_pct"`
}

// CostingMode names the active Costing variant.
type CostingMode string

const (
	CostingBlended    CostingMode = "blended"
	CostingAssetClass CostingMode = "asset_class"
)

// Costing selects how hard costs are priced. Exactly one variant is set.
type Costing struct {
	Blended    *BlendedCosting    `json:"blended,omitempty" yaml:"blended,omitempty"`
	AssetClass *AssetClassCosting `json:"asset_class,omitempty" yaml:"asset_class,omitempty"`
}

// BlendedCosting prices every built m² at one composite rate.
type BlendedCosting struct {
	StructurePerM2 float64 `json:"structure_per_m2" yaml:"structure_per_m2"`
	FinishingPerM2 float64 `json:"finishing_per_m2" yaml:"finishing_per_m2"`
	UtilitiesPerM2 float64 `json:"utilities_per_m2" yaml:"utilities_per_m2"`
}

// PerM2 is the composite hard cost per m² of GFA.
func (b BlendedCosting) PerM2() float64 {
	return b.StructurePerM2 + b.FinishingPerM2 + b.UtilitiesPerM2
}

// AssetClassCosting prices GFA per asset class.
type AssetClassCosting struct {
	CostTable []AssetClassCost `json:"cost_table" yaml:"cost_table"`
}

// AssetClassCost is one row of the research cost table.
type AssetClassCost struct {
	AssetClass string  `json:"asset_class" yaml:"asset_class"`
	CostPerM2  float64 `json:"cost_per_m2" yaml:"cost_per_m2"`
}

// Mode reports which variant is set, or "" when the value is not a valid variant.
func (c Costing) Mode() CostingMode {
	switch {
	case c.Blended != nil && c.AssetClass == nil:
		return CostingBlended
	case c.AssetClass != nil && c.Blended == nil:
		return CostingAssetClass
	default:
		return ""
	}
}

// Validate rejects parameter sets the pipeline cannot evaluate.
// Consistency issues such as an S-curve not summing to 100 are not errors.
func (p ProjectParameters) Validate() error {
	if err := p.validateFinite(); err != nil {
		return err
	}

	nonNegative := []numericField{
		{"site.land_area_m2", p.Site.LandAreaM2},
		{"site.footprint_ratio_pct", p.Site.FootprintRatioPct},
		{"site.far", p.Site.FAR},
		{"site.building_efficiency_pct", p.Site.BuildingEfficiencyPct},
		{"construction.permit_fee", p.Construction.PermitFee},
		{"construction.amenities_capex", p.Construction.AmenitiesCapex},
		{"construction.parking_cost_per_space", p.Construction.ParkingCostPerSpace},
		{"financing.debt_amount", p.Financing.DebtAmount},
		{"financing.upfront_fee", p.Financing.UpfrontFee},
		{"operation.opex_per_m2", p.Operation.OpexPerM2},
	}
	for _, nn := range nonNegative {
		if nn.value < 0 {
			return invalid(nn.field, "must be a non-negative number, got %v", nn.value)
		}
	}

	switch p.Construction.Costing.Mode() {
	case CostingBlended:
		if p.Construction.Costing.Blended.PerM2() < 0 {
			return invalid("construction.costing.blended", "hard cost per m² must be non-negative")
		}
	case CostingAssetClass:
		for i, row := range p.Construction.Costing.AssetClass.CostTable {
			if strings.TrimSpace(row.AssetClass) == "" {
				return invalid("construction.costing.asset_class.cost_table", "row %d has an empty asset class", i)
			}
			if row.CostPerM2 < 0 {
				return invalid("construction.costing.asset_class.cost_table", "row %d has a negative cost", i)
			}
		}
	default:
		return invalid("construction.costing", "exactly one of blended or asset_class must be set")
	}

	if p.Financing.LoanTermYears <= 0 {
		return invalid("financing.loan_term_years", "must be positive, got %d", p.Financing.LoanTermYears)
	}
	if p.Financing.GraceYears < 0 {
		return invalid("financing.grace_years", "must be non-negative, got %d", p.Financing.GraceYears)
	}
	if p.Financing.InterestRatePct <= -100 {
		return invalid("financing.interest_rate_pct", "must be greater than -100, got %v", p.Financing.InterestRatePct)
	}
	if p.Tax.TaxHolidayYears < 0 {
		return invalid("tax.tax_holiday_years", "must be non-negative, got %d", p.Tax.TaxHolidayYears)
	}
	if p.Exit.HoldingPeriodYears < 1 {
		return invalid("exit.holding_period_years", "must be at least 1, got %d", p.Exit.HoldingPeriodYears)
	}
	if p.Exit.ExitYieldPct <= 0 {
		return invalid("exit.exit_yield_pct", "must be positive, got %v", p.Exit.ExitYieldPct)
	}
	return nil
}

type numericField struct {
	field string
	value float64
}

// validateFinite rejects NaN and infinities in every required number. One
// of them would otherwise spread through every row of the cash flow.
// ValueGrowthPct is an optional override where NaN means unset.
func (p ProjectParameters) validateFinite() error {
	fields := []numericField{
		{"site.land_area_m2", p.Site.LandAreaM2},
		{"site.footprint_ratio_pct", p.Site.FootprintRatioPct},
		{"site.far", p.Site.FAR},
		{"site.building_efficiency_pct", p.Site.BuildingEfficiencyPct},
		{"site.fx_eur_local", p.Site.FXEURLocal},
		{"tax.corporate_tax_rate_pct", p.Tax.CorporateTaxRatePct},
		{"tax.discount_rate_pct", p.Tax.DiscountRatePct},
		{"construction.architect_fee_pct", p.Construction.ArchitectFeePct},
		{"construction.development_fee_pct", p.Construction.DevelopmentFeePct},
		{"construction.marketing_fee_pct", p.Construction.MarketingFeePct},
		{"construction.contingency_pct", p.Construction.ContingencyPct},
		{"construction.permit_fee", p.Construction.PermitFee},
		{"construction.amenities_capex", p.Construction.AmenitiesCapex},
		{"construction.parking_cost_per_space", p.Construction.ParkingCostPerSpace},
		{"financing.debt_amount", p.Financing.DebtAmount},
		{"financing.interest_rate_pct", p.Financing.InterestRatePct},
		{"financing.arrangement_fee_pct", p.Financing.ArrangementFeePct},
		{"financing.upfront_fee", p.Financing.UpfrontFee},
		{"financing.prepayment_fee_pct", p.Financing.PrepaymentFeePct},
		{"operation.inflation_pct", p.Operation.InflationPct},
		{"operation.rent_growth_pct", p.Operation.RentGrowthPct},
		{"operation.occupancy_pct", p.Operation.OccupancyPct},
		{"operation.opex_per_m2", p.Operation.OpexPerM2},
		{"operation.pm_fee_pct", p.Operation.PMFeePct},
		{"exit.exit_yield_pct", p.Exit.ExitYieldPct},
		{"exit.transaction_fee_pct", p.Exit.TransactionFeePct},
	}
	for i, v := range p.Construction.SCurvePct {
		fields = append(fields, numericField{fmt.Sprintf("construction.s_curve_pct[%d]", i), v})
	}
	if b := p.Construction.Costing.Blended; b != nil {
		fields = append(fields,
			numericField{"construction.costing.blended.structure_per_m2", b.StructurePerM2},
			numericField{"construction.costing.blended.finishing_per_m2", b.FinishingPerM2},
			numericField{"construction.costing.blended.utilities_per_m2", b.UtilitiesPerM2},
		)
	}
	if ac := p.Construction.Costing.AssetClass; ac != nil {
		for i, row := range ac.CostTable {
			fields = append(fields, numericField{
				fmt.Sprintf("construction.costing.asset_class.cost_table[%d].cost_per_m2", i), row.CostPerM2,
			})
		}
	}

	for _, f := range fields {
		if !isFinite(f.value) {
			return invalid(f.field, "must be a finite number, got %v", f.value)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// pct converts a plain percentage to a fraction.
func pct(v float64) float64 {
	return v / 100.0
}
