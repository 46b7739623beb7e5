package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LucienMarcon/APP-BP/internal/database"
	"github.com/LucienMarcon/APP-BP/internal/models"
	"github.com/jackc/pgx/v5"
)

// ParcelRepository reads parcel sites from PostGIS.
type ParcelRepository interface {
	// FindByPIN returns the parcel with the given PIN and its geodesic area.
	// Returns nil, nil if no parcel matches; errors are database failures only.
	FindByPIN(ctx context.Context, pin int) (*models.Parcel, error)
}

type parcelRepository struct {
	db *database.Database
}

// NewParcelRepository creates a ParcelRepository backed by db.
func NewParcelRepository(db *database.Database) ParcelRepository {
	return &parcelRepository{db: db}
}

// findByPINQuery casts the geometry to geography so ST_Area is in m².
// A PIN can span several rows after a split, so the largest piece wins.
var findByPINQuery = fmt.Sprintf(`
	SELECT
		id,
		pin,
		county_name,
		situs,
		owner_name,
		as_code,
		ST_Area(geom::geography) AS land_area_m2,
		ST_AsGeoJSON(geom) AS geometry
	FROM %s
	WHERE pin = $1
	ORDER BY land_area_m2 DESC
	LIMIT 1
`, models.Parcel{}.TableName())

// FindByPIN looks a parcel up by its cadastral PIN.
func (r *parcelRepository) FindByPIN(ctx context.Context, pin int) (*models.Parcel, error) {
	var parcel models.Parcel
	var geomJSON []byte

	err := r.db.Pool.QueryRow(ctx, findByPINQuery, pin).Scan(
		&parcel.ID,
		&parcel.PIN,
		&parcel.CountyName,
		&parcel.Situs,
		&parcel.OwnerName,
		&parcel.LandUse,
		&parcel.LandAreaM2,
		&geomJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query parcel %d: %w", pin, err)
	}

	if err := parcel.Geom.Scan(geomJSON); err != nil {
		return nil, fmt.Errorf("failed to parse geometry for parcel %d: %w", pin, err)
	}

	return &parcel, nil
}
