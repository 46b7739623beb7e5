package proforma

// Parking is the parking requirement of the unit programme.
type Parking struct {
	Spaces float64 `json:"spaces"`
	Capex  float64 `json:"capex"`
}

// ComputeParking sums fixed and area-ratio spaces over all units.
// Missing per-unit parking fields count as zero.
func ComputeParking(costPerSpace float64, units []UnitRecord) Parking {
	var spaces float64
	for _, u := range units {
		spaces += orZero(u.ParkingPerUnit) + u.SurfaceM2/100*orZero(u.ParkingRatio)
	}
	return Parking{
		Spaces: spaces,
		Capex:  spaces * costPerSpace,
	}
}
