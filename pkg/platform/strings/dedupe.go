// Package strings provides order-preserving de-duplication helpers used to
// build stable observation and action lists.
package strings

import (
	"strings"
)

// Dedupe removes repeated values, keeping the first occurrence of each.
// A nil or empty input is returned unchanged.
func Dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return values
	}

	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// DedupeAndTrim trims every element, drops blanks, then removes duplicates.
// Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  Missing phone ", "Upload ID", "Missing phone", ""})
//	// Returns: []string{"Missing phone", "Upload ID"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return Dedupe(trimmed)
}
