// Package normalize folds text into the canonical form the moderation
// classifier matches against: lower case, with common leetspeak and
// homoglyph characters replaced by the Latin letter they stand for.
package normalize

import (
	"log/slog"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var substitutions = map[rune]rune{
	'1': 'i',
	'!': 'i',
	'İ': 'i',
	'ı': 'i',
	'0': 'o',
	'3': 'e',
	'4': 'a',
	'@': 'a',
	'5': 's',
	'$': 's',
	'ß': 'b',
}

func fold(r rune) rune {
	r = unicode.ToLower(r)
	if sub, ok := substitutions[r]; ok {
		return sub
	}
	return r
}

// Normalize lowercases text and applies the substitution table. Every output
// rune is a fixed point of the mapping, so Normalize is idempotent.
func Normalize(text string) string {
	// transformers keep state; build one per call so concurrent callers don't share it
	t := runes.Map(fold)
	out, _, err := transform.String(t, text)
	if err != nil {
		slog.Warn("text normalization error", "err", err)
		return text
	}
	return out
}
