package proforma

import "math"

// UnitSchedule aggregates the unit table per year, indexed 0..holding period.
// Year 0 is construction start and never carries operating activity.
type UnitSchedule struct {
	Rent         []float64 `json:"rent"`
	Sales        []float64 `json:"sales"`
	OccupiedArea []float64 `json:"occupied_area_m2"`
}

// ScheduleUnits builds rent, sale and occupied-area schedules.
//
// Rent accrues for rent and mixed units from their start year, until the
// year before a literal sale year. Rent compounds on the absolute year index,
// not on years since the unit's own start. Sale proceeds are credited once,
// in the literal sale year, compounded on that year. Units sold with the exit
// contribute rent only; their value is captured by the exit valuation.
func ScheduleUnits(units []UnitRecord, ops OperatingAssumptions) UnitSchedule {
	horizon := ops.HoldingPeriod
	sched := UnitSchedule{
		Rent:         make([]float64, horizon+1),
		Sales:        make([]float64, horizon+1),
		OccupiedArea: make([]float64, horizon+1),
	}

	for _, u := range units {
		mode, err := ParseDisposition(string(u.Mode))
		if err != nil {
			continue
		}
		occupancy := orDefault(u.OccupancyPct, ops.Occupancy)
		rentGrowth := orDefault(u.RentGrowthPct, ops.RentGrowth)
		appreciation := orDefault(u.AppreciationPct, ops.ValueGrowth)
		saleYear, soldLiterally := u.SaleYear.Year()

		if mode.rents() && u.StartYear != nil {
			annualRentPerM2 := u.RentPerM2Month * 12
			for year := 1; year <= horizon; year++ {
				if year < *u.StartYear {
					continue
				}
				if soldLiterally && year >= saleYear {
					break
				}
				rent := u.SurfaceM2 * annualRentPerM2 * math.Pow(1+rentGrowth, float64(year)) * occupancy
				sched.Rent[year] += rent
				sched.OccupiedArea[year] += u.SurfaceM2 * occupancy
			}
		}

		if mode.sells() && soldLiterally && saleYear >= 1 && saleYear <= horizon {
			sched.Sales[saleYear] += u.SurfaceM2 * u.PricePerM2 * math.Pow(1+appreciation, float64(saleYear))
		}
	}
	return sched
}
