package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// word pairs the raw input fragment with its normalized form.
type word struct {
	Raw        string
	Normalized string
}

// Tokenize splits text into normalized words: NFKC fold, lowercase, strip
// punctuation, whitespace split. Multi-digit numbers are exploded into
// individual digit tokens because the clip library signs digits one at a
// time; each digit token keeps the full number as its raw text.
func Tokenize(text string) []word {
	folded := norm.NFKC.String(text)
	folded = strings.ToLower(strings.TrimSpace(folded))

	var builder strings.Builder
	builder.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		case unicode.IsSpace(r):
			builder.WriteRune(' ')
		default:
			// Punctuation separates words rather than vanishing inside them,
			// so "platform,2" still yields two tokens.
			builder.WriteRune(' ')
		}
	}

	fields := strings.Fields(builder.String())
	words := make([]word, 0, len(fields))
	for _, field := range fields {
		if isAllDigits(field) && len(field) > 1 {
			for _, digit := range field {
				words = append(words, word{Raw: field, Normalized: string(digit)})
			}
			continue
		}
		words = append(words, word{Raw: field, Normalized: field})
	}
	return words
}

func isAllDigits(value string) bool {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return value != ""
}
