// Package repo implements the data persistence layer for domain entities,
// backed by GORM.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Unique violations are reported as ErrDuplicate where callers need to
//     tell them apart; other DB errors are propagated unchanged.
package repo

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique constraint violation.
var ErrDuplicate = errors.New("duplicate")

// IsDuplicate detects unique-constraint violations across drivers that may
// not map them to gorm.ErrDuplicatedKey.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	// SQLite: "UNIQUE constraint failed"; Postgres: "duplicate key value violates unique constraint"
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

var lowerer = cases.Lower(language.Und)

// searchTerms splits a free-text query on whitespace.
func searchTerms(q string) []string {
	return strings.Fields(q)
}

// foldFor returns the lower-casing that agrees with LOWER() on db. SQLite's
// built-in LOWER only folds ASCII letters, so terms are folded the same way
// there; non-ASCII letters then match only in their stored case.
func foldFor(db *gorm.DB) func(string) string {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return asciiLower
	}
	return lowerer.String
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive "contains" pattern for term.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// applySearch narrows q so that every whitespace-separated term of search is
// contained (case-insensitively) in at least one of the given expressions.
// An expression is either a column reference or a full SQL predicate with a
// single placeholder (detected by the presence of "?").
func applySearch(q *gorm.DB, search string, exprs ...string) *gorm.DB {
	fold := foldFor(q)
	for _, term := range searchTerms(search) {
		pat := likePattern(fold(term))
		parts := make([]string, 0, len(exprs))
		args := make([]any, 0, len(exprs))
		for _, e := range exprs {
			if strings.Contains(e, "?") {
				parts = append(parts, e)
			} else {
				parts = append(parts, "LOWER("+e+`) LIKE ? ESCAPE '\'`)
			}
			args = append(args, pat)
		}
		q = q.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
	return q
}
