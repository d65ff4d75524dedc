// Package textutil formats product text for display.
package textutil

import (
	"regexp"
	"strings"
)

var (
	wordStart  = regexp.MustCompile(`(^|\s)\w`)
	firstWords = regexp.MustCompile(`^\s*(\w+(?:\s+\w+){0,2})`)
)

// CapitalizeEachWord upper-cases the first character of every word. Only
// ASCII word characters that start the string or follow whitespace change.
func CapitalizeEachWord(s string) string {
	return wordStart.ReplaceAllStringFunc(s, strings.ToUpper)
}

// FirstThreeWords returns up to the first three words of s. Words are runs
// of ASCII letters, digits and underscores; the first other character ends
// the result. It returns "" when s does not start with a word.
func FirstThreeWords(s string) string {
	m := firstWords.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}
