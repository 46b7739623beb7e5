package models

// Parcel is a cadastral parcel used as the site of a scenario. LandAreaM2 is
// the geodesic area of the parcel geometry, computed by PostGIS.
type Parcel struct {
	Situs      *string      `json:"situs,omitempty"`
	OwnerName  *string      `json:"owner_name,omitempty"`
	LandUse    *string      `json:"land_use,omitempty"`
	CountyName string       `json:"county_name"`
	Geom       MultiPolygon `json:"geometry"`
	LandAreaM2 float64      `json:"land_area_m2"`
	ID         uint         `json:"id"`
	PIN        int          `json:"pin"`
}

// TableName is the PostGIS table parcels are read from.
func (Parcel) TableName() string {
	return "tax_parcels"
}
