package knowledge

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9']+`)

// Tokenize returns the lower-cased alphanumeric tokens of text in order.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// TokenSet returns the distinct tokens across all texts.
func TokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, tok := range Tokenize(text) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// KeywordScore is the share of distinct query tokens found in fields.
// It is 0 for a query without tokens.
func KeywordScore(query string, fields []string) float64 {
	queryTokens := TokenSet(query)
	if len(queryTokens) == 0 {
		return 0
	}
	fieldTokens := TokenSet(fields...)
	overlap := 0
	for tok := range queryTokens {
		if _, ok := fieldTokens[tok]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryTokens))
}
