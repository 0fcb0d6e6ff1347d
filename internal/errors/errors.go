// Package errors writes the API's JSON error envelope.
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jpgoodman17/SPN-Site-Search/internal/middleware"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrPayloadTooLarge    = "PAYLOAD_TOO_LARGE"
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

// respond logs at warn level (error level when err is set) and aborts with
// the envelope.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}, err error) {
	requestID := middleware.GetRequestID(c)

	if log := middleware.GetLogger(c); log != nil {
		fields := map[string]interface{}{
			"code":    code,
			"message": message,
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		}
		if details != nil {
			fields["details"] = details
		}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, fields)
		} else {
			log.Warn("Request rejected", fields)
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrNotFound, message, nil, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details, nil)
}

// PayloadTooLarge returns a 413 response naming the upload limit.
func PayloadTooLarge(c *gin.Context, limitBytes int64) {
	respond(c, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge, "Upload exceeds size limit",
		map[string]interface{}{"limit_bytes": limitBytes}, nil)
}

// ServiceUnavailable returns a 503 response. The cause is logged, not sent.
func ServiceUnavailable(c *gin.Context, message string, err error) {
	respond(c, http.StatusServiceUnavailable, ErrServiceUnavailable, message, nil, err)
}

// InternalServerError returns a 500 Internal Server Error response.
// The actual error is logged and never exposed to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil, err)
}

// ValidationError returns a 400 Bad Request error response with one message
// per invalid field.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = formatValidationError(fe)
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
	case "len":
		return "Must have length of " + err.Param()
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
