package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/LucienMarcon/APP-BP/internal/errors"
	"github.com/LucienMarcon/APP-BP/internal/export"
	"github.com/LucienMarcon/APP-BP/internal/middleware"
	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"github.com/LucienMarcon/APP-BP/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ProformaHandler handles scenario evaluation requests.
type ProformaHandler struct {
	service      services.ProformaService
	maxBodyBytes int64
}

// NewProformaHandler creates a new ProformaHandler instance. Request bodies
// over maxBodyBytes are rejected with 413; zero disables the cap.
func NewProformaHandler(service services.ProformaService, maxBodyBytes int64) *ProformaHandler {
	return &ProformaHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
	}
}

// ProformaRequest is the body of every evaluation endpoint.
type ProformaRequest struct {
	Parameters *proforma.ProjectParameters `json:"parameters" binding:"required"`
	Units      []proforma.UnitRecord       `json:"units"`
}

// ExportQuery represents the query parameters for the export endpoint.
type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=xlsx csv"`
}

// ParcelURI represents the path parameters for parcel evaluations.
type ParcelURI struct {
	PIN int `uri:"pin" binding:"required,gt=0"`
}

// Evaluate handles POST /api/v1/proforma.
func (h *ProformaHandler) Evaluate(c *gin.Context) {
	req, ok := h.bindProformaRequest(c)
	if !ok {
		return
	}

	eval, err := h.service.Evaluate(c.Request.Context(), *req.Parameters, req.Units)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	middleware.AddLogField(c, "evaluation_id", eval.ID)
	c.JSON(http.StatusOK, eval)
}

// EvaluateParcel handles POST /api/v1/parcels/:pin/proforma.
// The land area of the scenario is replaced by the parcel's surveyed area.
func (h *ProformaHandler) EvaluateParcel(c *gin.Context) {
	var uri ParcelURI
	if err := c.ShouldBindUri(&uri); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid parcel PIN", nil)
		return
	}

	req, ok := h.bindProformaRequest(c)
	if !ok {
		return
	}

	middleware.AddLogField(c, "pin", uri.PIN)

	eval, err := h.service.EvaluateForParcel(c.Request.Context(), uri.PIN, *req.Parameters, req.Units)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	middleware.AddLogField(c, "evaluation_id", eval.ID)
	c.JSON(http.StatusOK, eval)
}

// Export handles POST /api/v1/proforma/export. The format defaults to xlsx.
func (h *ProformaHandler) Export(c *gin.Context) {
	var query ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	format := export.FormatXLSX
	if query.Format != "" {
		parsed, err := export.ParseFormat(query.Format)
		if err != nil {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		format = parsed
	}

	req, ok := h.bindProformaRequest(c)
	if !ok {
		return
	}

	eval, err := h.service.Evaluate(c.Request.Context(), *req.Parameters, req.Units)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, eval.Result); err != nil {
		apierrors.InternalServerError(c, "Failed to render export", err)
		return
	}

	middleware.AddLogField(c, "evaluation_id", eval.ID)
	middleware.AddLogField(c, "format", string(format))

	filename := format.FileName("proforma-" + eval.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// bindProformaRequest decodes and validates the request body. It writes the
// error response itself and reports whether the handler should continue.
func (h *ProformaHandler) bindProformaRequest(c *gin.Context) (*ProformaRequest, bool) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var req ProformaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.RequestTooLarge(c, tooLarge.Limit)
			return nil, false
		}
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return nil, false
		}
		apierrors.BadRequest(c, "Invalid request body", map[string]interface{}{
			"body": err.Error(),
		})
		return nil, false
	}
	return &req, true
}

// handleServiceError maps service and engine errors to API responses.
func handleServiceError(c *gin.Context, err error) {
	var paramErr *proforma.ParameterError
	switch {
	case errors.As(err, &paramErr):
		apierrors.InvalidParameter(c, paramErr.Field, paramErr.Reason)
	case errors.Is(err, services.ErrTooManyUnits):
		apierrors.InvalidParameter(c, "units", err.Error())
	case errors.Is(err, services.ErrHoldingPeriodTooLong):
		apierrors.InvalidParameter(c, "exit.holding_period_years", err.Error())
	case errors.Is(err, services.ErrParcelNotFound):
		apierrors.NotFound(c, "No parcel found with this PIN")
	case errors.Is(err, services.ErrSiteLookupDisabled):
		apierrors.NotFound(c, "Parcel lookup is not available")
	default:
		apierrors.InternalServerError(c, "Failed to evaluate scenario", err)
	}
}
