// Package utils holds tiny helpers that carry no domain knowledge.
package utils

import "strconv"

// IntOr parses s as a base-10 integer and falls back to def when s is
// empty or malformed. Query parameters arrive as strings; callers clamp
// the result to their own bounds afterwards.
func IntOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
