package core

import "strings"

// OtherCategory is the fallback label for anything outside the known
// catalog of a kind.
const OtherCategory = "Other"

var categoryCatalog = map[Kind][]string{
	Income:  {"Salary", "Freelance", "Investments", "Gift", OtherCategory},
	Expense: {"Food", "Transport", "Housing", "Leisure", "Health", "Education", OtherCategory},
}

// Categories returns the known categories for a kind, in display order.
// The returned slice is a copy.
func Categories(kind Kind) []string {
	cats := categoryCatalog[kind]
	out := make([]string, len(cats))
	copy(out, cats)
	return out
}

// KnownCategory reports whether the category belongs to the kind's catalog.
// Matching is case-insensitive; the stored form keeps catalog casing.
func KnownCategory(kind Kind, category string) (string, bool) {
	category = strings.TrimSpace(category)
	for _, c := range categoryCatalog[kind] {
		if strings.EqualFold(c, category) {
			return c, true
		}
	}
	return "", false
}

// NormalizeCategory remaps anything outside the kind's catalog to "Other".
// Unrecognized categories are remapped silently rather than rejected.
func NormalizeCategory(kind Kind, category string) string {
	if c, ok := KnownCategory(kind, category); ok {
		return c
	}
	return OtherCategory
}
