package proforma

// OperatingAssumptions are the macro operating and exit inputs as fractions.
type OperatingAssumptions struct {
	Inflation        float64 `json:"inflation"`
	RentGrowth       float64 `json:"rent_growth"`
	ValueGrowth      float64 `json:"value_growth"`
	Occupancy        float64 `json:"occupancy"`
	OpexPerM2        float64 `json:"opex_per_m2"`
	PMFee            float64 `json:"pm_fee"`
	HoldingPeriod    int     `json:"holding_period"`
	ExitYield        float64 `json:"exit_yield"`
	TransactionFee   float64 `json:"transaction_fee"`
	CorporateTaxRate float64 `json:"corporate_tax_rate"`
	TaxHolidayYears  int     `json:"tax_holiday_years"`
	DiscountRate     float64 `json:"discount_rate"`
}

// NormalizeOperating converts the plain percentages of a scenario.
// Appreciation defaults to inflation when no value growth is configured.
func NormalizeOperating(p ProjectParameters) OperatingAssumptions {
	inflation := pct(p.Operation.InflationPct)
	return OperatingAssumptions{
		Inflation:        inflation,
		RentGrowth:       pct(p.Operation.RentGrowthPct),
		ValueGrowth:      orDefault(p.Operation.ValueGrowthPct, inflation),
		Occupancy:        pct(p.Operation.OccupancyPct),
		OpexPerM2:        p.Operation.OpexPerM2,
		PMFee:            pct(p.Operation.PMFeePct),
		HoldingPeriod:    p.Exit.HoldingPeriodYears,
		ExitYield:        pct(p.Exit.ExitYieldPct),
		TransactionFee:   pct(p.Exit.TransactionFeePct),
		CorporateTaxRate: pct(p.Tax.CorporateTaxRatePct),
		TaxHolidayYears:  p.Tax.TaxHolidayYears,
		DiscountRate:     pct(p.Tax.DiscountRatePct),
	}
}
