package utils

import "strings"

// MaskSecret keeps a short prefix so two keys can be told apart in logs.
// Short values are hidden entirely.
func MaskSecret(s string) string {
	const visible = 4
	if len(s) <= visible*2 {
		return strings.Repeat("*", len(s))
	}
	return s[:visible] + "*****"
}
