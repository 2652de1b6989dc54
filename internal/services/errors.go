// Package services defines the business logic of the marketplace: accounts
// and email verification, the catalog, creative profiles and moderation,
// bookings with their contracts and chat, and product commerce.
//
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import (
	"errors"
	"sort"
	"strings"
)

// Account errors.
var (
	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned by Login for an unknown username or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrOTPNotFound indicates that the user has no verification code.
	ErrOTPNotFound = errors.New("OTP not found")

	// ErrOTPExpired is returned when the code is older than the OTP TTL.
	ErrOTPExpired = errors.New("OTP expired")

	// ErrOTPInvalid is returned when the submitted code does not match.
	ErrOTPInvalid = errors.New("invalid OTP")
)

// Marketplace errors.
var (
	ErrSubCategoryNotFound = errors.New("sub category not found")
	ErrProfileNotFound     = errors.New("creative profile not found")
	ErrPackageNotFound     = errors.New("service package not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrContractNotFound    = errors.New("contract not found")

	// ErrInterestsFailed wraps any storage failure while replacing interests.
	ErrInterestsFailed = errors.New("saving interests failed")
)

// ErrForbidden is returned when the acting user may not perform an operation
// on the addressed resource.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports invalid input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// Error implements error with the fields in a stable order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// invalid returns a ValidationError for a single field.
func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// fieldErrors accumulates per-field problems.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// err returns nil when no problem was recorded.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(f)}
}
