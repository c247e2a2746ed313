// Package strings holds small string-slice helpers shared across packages.
package strings

import "strings"

// DedupeAndTrim trims whitespace, drops empties, and removes duplicates
// from values, preserving first-seen order.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, false)
}

// DedupeAndTrimLower does the same after lowercasing, for inputs that
// compare case-insensitively.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, true)
}

func dedupe(values []string, lower bool) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
