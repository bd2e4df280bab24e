package utils

import (
	"strings"
)

// AlphaLabel returns the spreadsheet-style letter label for a 1-based
// index: 1 -> "A", 26 -> "Z", 27 -> "AA", 28 -> "AB".
// Non-positive indexes return an empty string.
func AlphaLabel(n int) string {
	if n <= 0 {
		return ""
	}

	var b []byte
	for n > 0 {
		n--
		b = append(b, byte('A'+n%26))
		n /= 26
	}

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// JoinLabel appends a suffix to a batch label, dropping surrounding spaces.
func JoinLabel(prefix, suffix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return suffix
	}
	return prefix + suffix
}
