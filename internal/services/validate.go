package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// checkMoney validates a non-negative amount stored as DECIMAL(maxDigits, 2).
func checkMoney(fe fieldErrors, field string, d decimal.Decimal, maxDigits int32) {
	switch {
	case d.IsNegative():
		fe.add(field, "Ensure this value is greater than or equal to 0.")
	case !d.Equal(d.Round(2)):
		fe.add(field, "Ensure that there are no more than 2 decimal places.")
	case d.GreaterThanOrEqual(decimal.New(1, maxDigits-2)):
		fe.add(field, "Ensure that there are no more than "+strconv.Itoa(int(maxDigits))+" digits in total.")
	}
}

// checkRequired records a "required" error when s is blank and returns the
// trimmed value.
func checkRequired(fe fieldErrors, field, s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		fe.add(field, "This field is required.")
	}
	return s
}

// checkMaxLen records an error when s exceeds n bytes.
func checkMaxLen(fe fieldErrors, field, s string, n int) {
	if len(s) > n {
		fe.add(field, "Ensure this field has no more than "+strconv.Itoa(n)+" characters.")
	}
}

// checkURL records an error unless s is an absolute http(s) URL.
func checkURL(fe fieldErrors, field, s string) {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fe.add(field, "Enter a valid URL.")
	}
}
