package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/LucienMarcon/APP-BP/internal/config"
	"github.com/LucienMarcon/APP-BP/internal/logger"
	"github.com/LucienMarcon/APP-BP/internal/models"
	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"github.com/LucienMarcon/APP-BP/internal/repository"
	"github.com/google/uuid"
)

// Service-level errors
var (
	ErrParcelNotFound       = errors.New("parcel not found")
	ErrSiteLookupDisabled   = errors.New("parcel site lookup is disabled")
	ErrTooManyUnits         = errors.New("too many units")
	ErrHoldingPeriodTooLong = errors.New("holding period too long")
)

// Evaluation is one engine run as returned to API clients. The engine
// result is inlined so the payload reads as a flat pro forma.
type Evaluation struct {
	ID     string         `json:"evaluation_id"`
	Parcel *models.Parcel `json:"parcel,omitempty"`
	*proforma.Result
}

// ProformaService defines the business operations around the engine.
type ProformaService interface {
	// Evaluate runs a scenario as submitted.
	// Returns ErrTooManyUnits or ErrHoldingPeriodTooLong when a request guard trips.
	// Engine rejections wrap proforma.ErrInvalidParameter.
	Evaluate(ctx context.Context, params proforma.ProjectParameters, units []proforma.UnitRecord) (*Evaluation, error)

	// EvaluateForParcel takes the land area from the parcel's geometry and
	// evaluates the scenario on that site.
	// Returns ErrSiteLookupDisabled when no parcel store is configured.
	// Returns ErrParcelNotFound if no parcel has the PIN.
	EvaluateForParcel(ctx context.Context, pin int, params proforma.ProjectParameters, units []proforma.UnitRecord) (*Evaluation, error)
}

type proformaService struct {
	repo   repository.ParcelRepository
	limits config.LimitsConfig
	log    *logger.Logger
}

// NewProformaService creates a ProformaService. repo may be nil when the
// database is disabled; parcel evaluations then fail with ErrSiteLookupDisabled.
func NewProformaService(repo repository.ParcelRepository, limits config.LimitsConfig, log *logger.Logger) ProformaService {
	return &proformaService{
		repo:   repo,
		limits: limits,
		log:    log,
	}
}

// Evaluate checks the request guards, then runs the engine.
func (s *proformaService) Evaluate(ctx context.Context, params proforma.ProjectParameters, units []proforma.UnitRecord) (*Evaluation, error) {
	return s.evaluate(ctx, nil, params, units)
}

// EvaluateForParcel resolves the site from PostGIS and evaluates on it.
func (s *proformaService) EvaluateForParcel(ctx context.Context, pin int, params proforma.ProjectParameters, units []proforma.UnitRecord) (*Evaluation, error) {
	if s.repo == nil {
		return nil, ErrSiteLookupDisabled
	}

	s.log.Info("Querying parcel site", map[string]interface{}{
		"pin": pin,
	})

	parcel, err := s.repo.FindByPIN(ctx, pin)
	if err != nil {
		s.log.Error("Failed to query parcel site", err, map[string]interface{}{
			"pin": pin,
		})
		return nil, fmt.Errorf("failed to query parcel: %w", err)
	}

	// Repository returns nil, nil when no parcel found
	if parcel == nil {
		s.log.Debug("No parcel found for PIN", map[string]interface{}{
			"pin": pin,
		})
		return nil, fmt.Errorf("%w: pin %d", ErrParcelNotFound, pin)
	}

	params.Site.LandAreaM2 = parcel.LandAreaM2
	if params.Site.City == "" {
		params.Site.City = parcel.CountyName
	}

	return s.evaluate(ctx, parcel, params, units)
}

func (s *proformaService) evaluate(ctx context.Context, parcel *models.Parcel, params proforma.ProjectParameters, units []proforma.UnitRecord) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if limit := s.limits.MaxUnits; limit > 0 && len(units) > limit {
		s.log.Warn("Unit programme exceeds limit", map[string]interface{}{
			"units": len(units),
			"max":   limit,
		})
		return nil, fmt.Errorf("%w: %d units, at most %d allowed", ErrTooManyUnits, len(units), limit)
	}
	if limit := s.limits.MaxHoldingPeriod; limit > 0 && params.Exit.HoldingPeriodYears > limit {
		s.log.Warn("Holding period exceeds limit", map[string]interface{}{
			"holding_period": params.Exit.HoldingPeriodYears,
			"max":            limit,
		})
		return nil, fmt.Errorf("%w: %d years, at most %d allowed",
			ErrHoldingPeriodTooLong, params.Exit.HoldingPeriodYears, limit)
	}

	id := uuid.New().String()
	log := s.log.With(map[string]interface{}{"evaluation_id": id})

	result, err := proforma.Run(params, units)
	if err != nil {
		log.Warn("Scenario rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to evaluate scenario: %w", err)
	}

	for _, w := range result.Warnings {
		log.Warn("Scenario warning", map[string]interface{}{
			"warning": w,
		})
	}

	fields := map[string]interface{}{
		"units":          len(units),
		"holding_period": params.Exit.HoldingPeriodYears,
		"unlevered_irr":  result.KPIs.UnleveredIRR.Float(),
		"levered_irr":    result.KPIs.LeveredIRR.Float(),
	}
	if parcel != nil {
		fields["pin"] = parcel.PIN
	}
	log.Info("Scenario evaluated", fields)

	return &Evaluation{
		ID:     id,
		Parcel: parcel,
		Result: result,
	}, nil
}
