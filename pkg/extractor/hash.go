package extractor

import (
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var nonWordRegex = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Tokenize lowercases block text, replaces non-word characters with
// whitespace, and returns the tokens longer than one character. Identical
// input always yields the identical token list.
func Tokenize(code string) []string {
	cleaned := nonWordRegex.ReplaceAllString(strings.ToLower(code), " ")
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) > 1 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Fingerprint computes the structural hash of a block: leading and trailing
// whitespace per line is dropped, blank lines are removed, and the result
// is hashed with xxhash. Collisions are acceptable; equality is treated as
// an exact duplicate.
func Fingerprint(code string) uint64 {
	lines := strings.Split(code, "\n")
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	return xxhash.Sum64String(strings.Join(normalized, "\n"))
}
