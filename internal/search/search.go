// Package search narrows lists by a case-insensitive substring over an
// entity's id and display label.
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns s in Unicode case-folded form. A Caser is stateful, so each
// call gets its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Blank reports whether term passes everything.
func Blank(term *string) bool {
	return term == nil || strings.TrimSpace(*term) == ""
}

// Matches reports whether id or label contains term after case folding.
// A nil or blank term matches everything.
func Matches(term *string, id, label string) bool {
	if Blank(term) {
		return true
	}
	needle := Fold(strings.TrimSpace(*term))
	return strings.Contains(Fold(id), needle) || strings.Contains(Fold(label), needle)
}

// Filter returns the items matching term, in input order.
func Filter[T any](items []T, term *string, idOf, labelOf func(T) string) []T {
	if Blank(term) {
		return items
	}

	needle := Fold(strings.TrimSpace(*term))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(Fold(idOf(item)), needle) || strings.Contains(Fold(labelOf(item)), needle) {
			out = append(out, item)
		}
	}
	return out
}

// Term returns a pointer to s, or nil when s is blank.
func Term(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
