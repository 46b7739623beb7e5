package proforma

// SiteMetrics is the building envelope allowed on the plot.
type SiteMetrics struct {
	FootprintM2 float64 `json:"footprint_m2"`
	GFAM2       float64 `json:"gfa_m2"`
	GLAM2       float64 `json:"gla_m2"`
}

// ComputeSiteMetrics derives footprint, GFA and GLA from the land parameters.
func ComputeSiteMetrics(site SiteParams) (SiteMetrics, error) {
	switch {
	case site.LandAreaM2 < 0:
		return SiteMetrics{}, invalid("site.land_area_m2", "must be non-negative, got %v", site.LandAreaM2)
	case site.FootprintRatioPct < 0:
		return SiteMetrics{}, invalid("site.footprint_ratio_pct", "must be non-negative, got %v", site.FootprintRatioPct)
	case site.FAR < 0:
		return SiteMetrics{}, invalid("site.far", "must be non-negative, got %v", site.FAR)
	case site.BuildingEfficiencyPct < 0:
		return SiteMetrics{}, invalid("site.building_efficiency_pct", "must be non-negative, got %v", site.BuildingEfficiencyPct)
	}

	footprint := site.LandAreaM2 * pct(site.FootprintRatioPct)
	gfa := footprint * site.FAR
	return SiteMetrics{
		FootprintM2: footprint,
		GFAM2:       gfa,
		GLAM2:       gfa * pct(site.BuildingEfficiencyPct),
	}, nil
}
