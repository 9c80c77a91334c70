package responder

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// foldTable maps Azerbaijani letters to their ASCII counterparts.
// It is applied after lower-casing, so only lower-case forms are listed.
var foldTable = map[rune]rune{
	'ı': 'i',
	'ə': 'e',
	'ü': 'u',
	'ö': 'o',
	'ğ': 'g',
	'ş': 's',
	'ç': 'c',
}

func foldRune(r rune) rune {
	if f, ok := foldTable[r]; ok {
		return f
	}
	return r
}

// isWordOrSpace keeps letters of any script, digits, underscore and whitespace.
func isWordOrSpace(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r)
}

// Normalize produces the canonical comparison form of text: lower-cased,
// diacritic-folded, stripped of punctuation and trimmed. Inner whitespace is kept as is.
// The same function is applied to messages and to every lexicon entry.
func Normalize(text string) string {
	// transform.Chain keeps internal buffers, so a fresh chain is built per call.
	t := transform.Chain(
		runes.Map(foldRune),
		runes.Remove(runes.Predicate(func(r rune) bool { return !isWordOrSpace(r) })),
	)
	out, _, _ := transform.String(t, strings.ToLower(text))
	return strings.TrimSpace(out)
}
