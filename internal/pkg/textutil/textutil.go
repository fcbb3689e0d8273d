package textutil

import "unicode/utf8"

// Head returns at most n leading characters of s without splitting a rune.
func Head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Len counts characters rather than bytes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}
