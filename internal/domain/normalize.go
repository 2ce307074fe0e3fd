package domain

import (
	"strings"
)

// MinWordLength is the shortest word worth a dictionary lookup.
const MinWordLength = 2

// NormalizeWord prepares a word for lookup and cache keys:
//   - trims leading/trailing whitespace
//   - converts to lowercase
//   - drops every character outside a-z
//
// The result may be shorter than MinWordLength; callers check IsLookupWord.
func NormalizeWord(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(word))
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsLookupWord reports whether word is already normalized and long enough.
func IsLookupWord(word string) bool {
	return len(word) >= MinWordLength && NormalizeWord(word) == word
}

// IsASCIILetter reports whether c is in [a-zA-Z].
func IsASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsPlainWord reports whether s consists of at least MinWordLength ASCII
// letters and nothing else.
func IsPlainWord(s string) bool {
	if len(s) < MinWordLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsASCIILetter(s[i]) {
			return false
		}
	}
	return true
}
