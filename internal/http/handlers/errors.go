// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes give clients a stable, machine-readable error taxonomy that
// supplements the human-readable message of every ErrorResponse.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes (otp_expired, otp_invalid, unhandled) exist where
//     clients need to branch on more than the status.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "otp_expired",
//	  "message": "OTP expired"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeValidation   = "validation_error"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeOTPExpired       = "otp_expired"
	ErrCodeOTPInvalid       = "otp_invalid"
	ErrCodeUnhandled        = "unhandled"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
