package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/LucienMarcon/APP-BP/internal/errors"
	"github.com/LucienMarcon/APP-BP/internal/logger"
	"github.com/LucienMarcon/APP-BP/internal/middleware"
	"github.com/LucienMarcon/APP-BP/internal/models"
	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"github.com/LucienMarcon/APP-BP/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// MockProformaService is a mock implementation of ProformaService for testing
type MockProformaService struct {
	mock.Mock
}

func (m *MockProformaService) Evaluate(ctx context.Context, params proforma.ProjectParameters, units []proforma.UnitRecord) (*services.Evaluation, error) {
	args := m.Called(ctx, params, units)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Evaluation), args.Error(1)
}

func (m *MockProformaService) EvaluateForParcel(ctx context.Context, pin int, params proforma.ProjectParameters, units []proforma.UnitRecord) (*services.Evaluation, error) {
	args := m.Called(ctx, pin, params, units)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Evaluation), args.Error(1)
}

const requestBody = `{
	"parameters": {
		"site": {"land_area_m2": 10000, "footprint_ratio_pct": 50, "far": 2, "building_efficiency_pct": 80},
		"construction": {
			"costing": {"blended": {"structure_per_m2": 600, "finishing_per_m2": 300, "utilities_per_m2": 100}},
			"s_curve_pct": [30, 40, 30]
		},
		"financing": {"loan_term_years": 10},
		"operation": {"occupancy_pct": 100},
		"exit": {"holding_period_years": 3, "exit_yield_pct": 8}
	},
	"units": [
		{"asset_class": "Residential", "surface_m2": 500, "rent_per_m2_month": 20, "mode": "rent", "start_year": 1, "sale_year": null}
	]
}`

const testMaxBodyBytes = 64 << 10

// largeRequestBody is a valid scenario whose unit table exceeds testMaxBodyBytes.
func largeRequestBody() string {
	unit := `{"asset_class": "Residential", "surface_m2": 10, "rent_per_m2_month": 20, "mode": "rent", "start_year": 1, "sale_year": null}`
	units := make([]string, 1000)
	for i := range units {
		units[i] = unit
	}
	params := requestBody[strings.Index(requestBody, `"parameters"`):strings.Index(requestBody, `"units"`)]
	return "{" + params + `"units": [` + strings.Join(units, ",") + "]}"
}

// setupProformaTestRouter creates a test router with middleware and proforma handlers.
func setupProformaTestRouter(handler *ProformaHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Nop()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/proforma", handler.Evaluate)
		v1.POST("/proforma/export", handler.Export)
		v1.POST("/parcels/:pin/proforma", handler.EvaluateParcel)
	}

	return router
}

// testEvaluation runs the real engine on the request body.
func testEvaluation(t *testing.T) *services.Evaluation {
	t.Helper()
	var req ProformaRequest
	require.NoError(t, json.Unmarshal([]byte(requestBody), &req))
	res, err := proforma.Run(*req.Parameters, req.Units)
	require.NoError(t, err)
	return &services.Evaluation{ID: "3f2b6c1e-8a4d-4e0f-9b7a-1c2d3e4f5a6b", Result: res}
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()
	var response apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestEvaluate_Success(t *testing.T) {
	// Arrange
	mockService := new(MockProformaService)
	eval := testEvaluation(t)
	mockService.On("Evaluate", mock.Anything, mock.AnythingOfType("proforma.ProjectParameters"), mock.Anything).
		Return(eval, nil)
	router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

	// Act
	w := post(router, "/api/v1/proforma", requestBody)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, key := range []string{"evaluation_id", "site", "parking", "construction", "debt", "capex", "amortization", "cashflow", "kpis", "warnings"} {
		assert.Contains(t, body, key)
	}
	assert.NotContains(t, body, "parcel")

	var kpis map[string]interface{}
	require.NoError(t, json.Unmarshal(body["kpis"], &kpis))
	assert.Nil(t, kpis["equity_required_local"], "undefined metrics encode as null")
	assert.InDelta(t, eval.KPIs.UnleveredIRR.Float(), kpis["unlevered_irr"], 1e-12)

	mockService.AssertExpectations(t)
}

func TestEvaluate_PassesDecodedScenario(t *testing.T) {
	mockService := new(MockProformaService)
	mockService.On("Evaluate", mock.Anything,
		mock.MatchedBy(func(p proforma.ProjectParameters) bool {
			return p.Site.LandAreaM2 == 10000 && p.Exit.HoldingPeriodYears == 3
		}),
		mock.MatchedBy(func(u []proforma.UnitRecord) bool {
			return len(u) == 1 && u[0].SaleYear.IsNever() && *u[0].StartYear == 1
		}),
	).Return(testEvaluation(t), nil)
	router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

	w := post(router, "/api/v1/proforma", requestBody)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestEvaluate_BadRequests(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode string
	}{
		{
			name:         "malformed json",
			body:         `{"parameters": `,
			expectedCode: apierrors.ErrBadRequest,
		},
		{
			name:         "missing parameters",
			body:         `{"units": []}`,
			expectedCode: apierrors.ErrValidation,
		},
		{
			name:         "invalid sale year",
			body:         `{"parameters": {}, "units": [{"surface_m2": 10, "sale_year": "someday"}]}`,
			expectedCode: apierrors.ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProformaService)
			router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

			w := post(router, "/api/v1/proforma", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			response := decodeError(t, w)
			assert.Equal(t, tt.expectedCode, response.Error.Code)
			assert.NotEmpty(t, response.Error.RequestID)
			mockService.AssertNotCalled(t, "Evaluate")
		})
	}
}

func TestEvaluate_BodyTooLarge(t *testing.T) {
	body := largeRequestBody()
	require.Greater(t, len(body), testMaxBodyBytes)

	for _, path := range []string{"/api/v1/proforma", "/api/v1/proforma/export", "/api/v1/parcels/42/proforma"} {
		t.Run(path, func(t *testing.T) {
			mockService := new(MockProformaService)
			router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

			w := post(router, path, body)

			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
			response := decodeError(t, w)
			assert.Equal(t, apierrors.ErrTooLarge, response.Error.Code)
			assert.EqualValues(t, testMaxBodyBytes, response.Error.Details["max_bytes"])
			mockService.AssertNotCalled(t, "Evaluate")
			mockService.AssertNotCalled(t, "EvaluateForParcel")
		})
	}

	t.Run("no cap", func(t *testing.T) {
		mockService := new(MockProformaService)
		mockService.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(testEvaluation(t), nil)
		router := setupProformaTestRouter(NewProformaHandler(mockService, 0))

		w := post(router, "/api/v1/proforma", body)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestEvaluate_ServiceErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedField  string
	}{
		{
			name:           "engine rejects parameter",
			err:            fmt.Errorf("failed to evaluate scenario: %w", &proforma.ParameterError{Field: "exit.exit_yield_pct", Reason: "must be positive, got 0"}),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   apierrors.ErrInvalidParameter,
			expectedField:  "exit.exit_yield_pct",
		},
		{
			name:           "too many units",
			err:            fmt.Errorf("%w: 6000 units, at most 5000 allowed", services.ErrTooManyUnits),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   apierrors.ErrInvalidParameter,
			expectedField:  "units",
		},
		{
			name:           "holding period too long",
			err:            fmt.Errorf("%w: 80 years", services.ErrHoldingPeriodTooLong),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   apierrors.ErrInvalidParameter,
			expectedField:  "exit.holding_period_years",
		},
		{
			name:           "unexpected failure",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   apierrors.ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProformaService)
			mockService.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

			w := post(router, "/api/v1/proforma", requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decodeError(t, w)
			assert.Equal(t, tt.expectedCode, response.Error.Code)
			if tt.expectedField != "" {
				assert.Contains(t, response.Error.Details, tt.expectedField)
			}
			assert.NotContains(t, w.Body.String(), "boom", "internal causes are not leaked")
			mockService.AssertExpectations(t)
		})
	}
}

func TestExport_CSV(t *testing.T) {
	mockService := new(MockProformaService)
	eval := testEvaluation(t)
	mockService.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(eval, nil)
	router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

	w := post(router, "/api/v1/proforma/export?format=csv", requestBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="proforma-`+eval.ID+`.csv"`)

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, len(eval.Cashflow)+1)
}

func TestExport_DefaultsToXLSX(t *testing.T) {
	mockService := new(MockProformaService)
	mockService.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(testEvaluation(t), nil)
	router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

	w := post(router, "/api/v1/proforma/export", requestBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")

	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	assert.Contains(t, wb.GetSheetList(), "Cashflow")
}

func TestExport_InvalidFormat(t *testing.T) {
	mockService := new(MockProformaService)
	router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

	w := post(router, "/api/v1/proforma/export?format=pdf", requestBody)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeError(t, w)
	assert.Equal(t, apierrors.ErrValidation, response.Error.Code)
	assert.Contains(t, response.Error.Details, "Format")
	mockService.AssertNotCalled(t, "Evaluate")
}

func TestEvaluateParcel_Success(t *testing.T) {
	mockService := new(MockProformaService)
	eval := testEvaluation(t)
	eval.Parcel = &models.Parcel{ID: 7, PIN: 4242, CountyName: "Dakar", LandAreaM2: 2500}
	mockService.On("EvaluateForParcel", mock.Anything, 4242, mock.Anything, mock.Anything).Return(eval, nil)
	router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

	w := post(router, "/api/v1/parcels/4242/proforma", requestBody)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Parcel models.Parcel `json:"parcel"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4242, body.Parcel.PIN)
	assert.Equal(t, 2500.0, body.Parcel.LandAreaM2)
	mockService.AssertExpectations(t)
}

func TestEvaluateParcel_Errors(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		serviceErr     error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "non-numeric pin",
			path:           "/api/v1/parcels/abc/proforma",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrBadRequest,
		},
		{
			name:           "negative pin",
			path:           "/api/v1/parcels/-3/proforma",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apierrors.ErrValidation,
		},
		{
			name:           "parcel not found",
			path:           "/api/v1/parcels/99/proforma",
			serviceErr:     fmt.Errorf("%w: pin 99", services.ErrParcelNotFound),
			expectedStatus: http.StatusNotFound,
			expectedCode:   apierrors.ErrNotFound,
		},
		{
			name:           "lookup disabled",
			path:           "/api/v1/parcels/99/proforma",
			serviceErr:     services.ErrSiteLookupDisabled,
			expectedStatus: http.StatusNotFound,
			expectedCode:   apierrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProformaService)
			if tt.serviceErr != nil {
				mockService.On("EvaluateForParcel", mock.Anything, 99, mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}
			router := setupProformaTestRouter(NewProformaHandler(mockService, testMaxBodyBytes))

			w := post(router, tt.path, requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decodeError(t, w)
			assert.Equal(t, tt.expectedCode, response.Error.Code)
			mockService.AssertExpectations(t)
		})
	}
}
