package errors

import (
	"net/http"

	"github.com/LucienMarcon/APP-BP/internal/logger"
	"github.com/LucienMarcon/APP-BP/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error code constants for standardized error responses
const (
	ErrNotFound         = "NOT_FOUND"
	ErrBadRequest       = "BAD_REQUEST"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrValidation       = "VALIDATION_ERROR"
	ErrInvalidParameter = "INVALID_PARAMETER"
	ErrTooLarge         = "REQUEST_TOO_LARGE"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// respond writes the envelope and logs it through the request logger.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}, err error) {
	requestID := middleware.GetRequestID(c)

	if log := middleware.GetLogger(c); log != nil {
		fields := map[string]interface{}{
			"code":    code,
			"message": message,
			"path":    c.Request.URL.Path,
		}
		if details != nil {
			fields["details"] = details
		}
		logAt(log, status, err, fields)
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

func logAt(log *logger.Logger, status int, err error, fields map[string]interface{}) {
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", err, fields)
		return
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	log.Warn("Request rejected", fields)
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrNotFound, message, nil, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details, nil)
}

// InvalidParameter returns a 422 response for a scenario that is well formed
// but cannot be evaluated. field names the offending parameter.
func InvalidParameter(c *gin.Context, field, reason string) {
	var details map[string]interface{}
	if field != "" {
		details = map[string]interface{}{field: reason}
	}
	respond(c, http.StatusUnprocessableEntity, ErrInvalidParameter, "Scenario cannot be evaluated", details, nil)
}

// RequestTooLarge returns a 413 response for a body over limit bytes.
func RequestTooLarge(c *gin.Context, limit int64) {
	respond(c, http.StatusRequestEntityTooLarge, ErrTooLarge, "Request body is too large",
		map[string]interface{}{"max_bytes": limit}, nil)
}

// InternalServerError returns a 500 response. The cause is logged but never
// sent to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil, err)
}

// ValidationError returns a 400 response listing each field that failed
// request binding.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}

	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details, nil)
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lt":
		return "Must be less than " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "alphanum":
		return "Must contain only letters and digits"
	case "uuid":
		return "Must be a valid UUID"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
