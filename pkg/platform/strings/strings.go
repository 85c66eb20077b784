// Package strings holds small string helpers shared by config parsing and
// owner-name handling.
package strings

import (
	"strings"
)

// DedupeAndTrim drops blanks and duplicates, trimming each element. Order is
// preserved.
func DedupeAndTrim(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// SplitList splits a comma separated value and applies DedupeAndTrim.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, ","))
}

// SplitPairs parses "k1=v1,k2=v2" into a map. Entries without '=' are skipped.
func SplitPairs(raw string) map[string]string {
	out := make(map[string]string)
	for _, item := range SplitList(raw) {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// CollapseSpace trims s and folds internal whitespace runs into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
