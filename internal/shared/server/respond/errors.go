package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError maps a domain error onto its HTTP status and error code.
func FromError(c *gin.Context, err error) {
	var (
		authErr *apperr.AuthorizationError
		valErr  *apperr.ValidationError
		preErr  *apperr.PreconditionError
		nfErr   *apperr.NotFoundError
		extErr  *apperr.ExternalServiceError
	)
	switch {
	case errors.As(err, &authErr):
		Error(c, http.StatusForbidden, "forbidden", authErr.Error(), nil)
	case errors.As(err, &valErr):
		Error(c, http.StatusUnprocessableEntity, "validation_error", "the given data was invalid", valErr.Fields)
	case errors.As(err, &preErr):
		Error(c, http.StatusConflict, "precondition_failed", preErr.Error(), nil)
	case errors.As(err, &nfErr):
		Error(c, http.StatusNotFound, "not_found", nfErr.Error(), nil)
	case errors.As(err, &extErr):
		telemetry.Error("external.failure", map[string]any{
			"service":    extErr.Service,
			"error":      extErr.Err.Error(),
			"request_id": c.GetString("requestId"),
		})
		Error(c, http.StatusBadGateway, "external_service_error", extErr.Service+" is unavailable, please try again later", nil)
	default:
		telemetry.Error("internal.failure", map[string]any{
			"error":      err.Error(),
			"request_id": c.GetString("requestId"),
		})
		Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
	}
}
