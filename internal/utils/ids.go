// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"strconv"
	"strings"
)

// ParseID parses a positive decimal resource id. Surrounding spaces are
// ignored; zero, signs and anything that overflows uint are rejected.
//
// Example:
//
//	id, ok := utils.ParseID("42")  // 42, true
//	id, ok = utils.ParseID("0")    // 0, false
//	id, ok = utils.ParseID("x")    // 0, false
func ParseID(s string) (uint, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, strconv.IntSize)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// OptionalID is ParseID for optional filters: an empty string yields (0, true).
func OptionalID(s string) (uint, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, true
	}
	return ParseID(s)
}

// FormatID renders id in the decimal form ParseID accepts.
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
