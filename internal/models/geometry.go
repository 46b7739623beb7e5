package models

import (
	"encoding/json"
	"fmt"
	"math"
)

const geoJSONMultiPolygon = "MultiPolygon"

// MultiPolygon is a WGS84 (SRID 4326) parcel boundary in GeoJSON layout:
// [polygons][rings][points][lon,lat].
type MultiPolygon struct {
	Coordinates [][][][2]float64
	SRID        int
}

type multiPolygonJSON struct {
	Type        string           `json:"type"`
	Coordinates [][][][2]float64 `json:"coordinates"`
}

// Scan implements sql.Scanner for ST_AsGeoJSON output, which drivers may
// hand back as text or bytes.
func (mp *MultiPolygon) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan MultiPolygon: expected []byte or string, got %T", value)
	}

	var geom multiPolygonJSON
	if err := json.Unmarshal(raw, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal multipolygon geometry: %w", err)
	}
	if geom.Type != geoJSONMultiPolygon {
		return fmt.Errorf("expected MultiPolygon type, got %s", geom.Type)
	}

	mp.Coordinates = geom.Coordinates
	mp.SRID = 4326
	return nil
}

// MarshalJSON renders the geometry as a GeoJSON object.
func (mp MultiPolygon) MarshalJSON() ([]byte, error) {
	return json.Marshal(multiPolygonJSON{
		Type:        geoJSONMultiPolygon,
		Coordinates: mp.Coordinates,
	})
}

// UnmarshalJSON parses a GeoJSON MultiPolygon. A missing type is tolerated.
func (mp *MultiPolygon) UnmarshalJSON(data []byte) error {
	var geom multiPolygonJSON
	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal multipolygon: %w", err)
	}
	if geom.Type != "" && geom.Type != geoJSONMultiPolygon {
		return fmt.Errorf("expected MultiPolygon type, got %s", geom.Type)
	}

	mp.Coordinates = geom.Coordinates
	mp.SRID = 4326
	return nil
}

// IsEmpty reports whether the geometry has no vertices.
func (mp MultiPolygon) IsEmpty() bool {
	for _, poly := range mp.Coordinates {
		for _, ring := range poly {
			if len(ring) > 0 {
				return false
			}
		}
	}
	return true
}

// BBox returns [minLon, minLat, maxLon, maxLat], or nil for an empty geometry.
func (mp MultiPolygon) BBox() []float64 {
	if mp.IsEmpty() {
		return nil
	}
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, poly := range mp.Coordinates {
		for _, ring := range poly {
			for _, pt := range ring {
				minLon = math.Min(minLon, pt[0])
				maxLon = math.Max(maxLon, pt[0])
				minLat = math.Min(minLat, pt[1])
				maxLat = math.Max(maxLat, pt[1])
			}
		}
	}
	return []float64{minLon, minLat, maxLon, maxLat}
}
