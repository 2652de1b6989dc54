// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including the structured error envelope, the mapping from service errors to
// HTTP statuses, and helpers for common success responses.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting; 5xx responses are
//     logged with the request-scoped logger.
//   - `failErr()` translates service errors so handlers never pick statuses
//     for domain failures themselves.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_error",
//	  "message": "invalid input",
//	  "fields": { "booking_date": "This field is required." }
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-creative-marketplace/internal/http/middleware"
	"github.com/tbourn/go-creative-marketplace/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"booking not found"`
	// Per-field problems of a validation_error
	Fields map[string]string `json:"fields,omitempty"`
}

// MessageResponse is the body of operations that only report an outcome.
type MessageResponse struct {
	Message string `json:"message" example:"Email verified"`
}

func writeError(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	writeError(c, status, ErrorResponse{Code: code, Message: msg})
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error onto the error envelope. Unknown errors are
// reported as internal without leaking their text.
func failErr(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeValidation,
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, services.ErrOTPExpired):
		fail(c, http.StatusBadRequest, ErrCodeOTPExpired, "OTP expired")
	case errors.Is(err, services.ErrOTPInvalid):
		fail(c, http.StatusBadRequest, ErrCodeOTPInvalid, "Invalid OTP")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, services.ErrUsernameTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "A user with that username already exists.")
	case errors.Is(err, services.ErrInterestsFailed):
		fail(c, http.StatusInternalServerError, ErrCodeUnhandled, err.Error())
	case isNotFound(err):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Msg("unexpected service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

var notFoundErrs = []error{
	services.ErrUserNotFound,
	services.ErrOTPNotFound,
	services.ErrSubCategoryNotFound,
	services.ErrProfileNotFound,
	services.ErrPackageNotFound,
	services.ErrProductNotFound,
	services.ErrOrderNotFound,
	services.ErrBookingNotFound,
	services.ErrContractNotFound,
}

func isNotFound(err error) bool {
	for _, target := range notFoundErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
