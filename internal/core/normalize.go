package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// smallWords stay lower-case in a title unless they open or close it.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "en": true, "for": true, "if": true, "in": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "v": true, "via": true,
	"vs": true,
}

// Normalize turns a payee name into its grouping key: lower-cased, title-cased,
// commas stripped. "Acme, LLC" and "ACME LLC" both become "Acme Llc", and
// "FRIENDS OF THE EARTH" becomes "Friends of the Earth".
func Normalize(name string) string {
	words := strings.Fields(cases.Title(language.Und).String(strings.ToLower(name)))
	for i, w := range words {
		if i == 0 || i == len(words)-1 || endsSentence(words[i-1]) {
			continue
		}
		if smallWords[bareWord(w)] {
			words[i] = strings.ToLower(w)
		}
	}
	titled := strings.Join(words, " ")
	return strings.Join(strings.Fields(strings.ReplaceAll(titled, ",", "")), " ")
}

// bareWord lower-cases w and drops everything but letters, so "Of," matches "of".
func bareWord(w string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, w)
}

// A small word right after a colon or sentence end keeps its capital.
func endsSentence(w string) bool {
	return strings.HasSuffix(w, ":") || strings.HasSuffix(w, ".") ||
		strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?")
}
