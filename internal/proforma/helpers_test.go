package proforma

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// baseParams is a debt-free, tax-free scenario with a flat operating
// environment. Tests override the fields they exercise.
func baseParams() ProjectParameters {
	return ProjectParameters{
		Site: SiteParams{
			LandAreaM2:            10000,
			FootprintRatioPct:     50,
			FAR:                   2,
			BuildingEfficiencyPct: 80,
			FXEURLocal:            655.957,
		},
		Tax: TaxParams{
			DiscountRatePct: 8,
		},
		Construction: ConstructionParams{
			Costing: Costing{
				Blended: &BlendedCosting{StructurePerM2: 600, FinishingPerM2: 300, UtilitiesPerM2: 100},
			},
			SCurvePct: [3]float64{30, 40, 30},
		},
		Financing: FinancingParams{
			InterestRatePct: 5,
			LoanTermYears:   10,
		},
		Operation: OperationParams{
			OccupancyPct: 100,
		},
		Exit: ExitParams{
			HoldingPeriodYears: 5,
			ExitYieldPct:       10,
		},
	}
}

func rentUnit(surface, rent float64, start int) UnitRecord {
	return UnitRecord{
		AssetClass:     "Residential",
		SurfaceM2:      surface,
		RentPerM2Month: rent,
		Mode:           DispositionRent,
		StartYear:      intPtr(start),
	}
}
