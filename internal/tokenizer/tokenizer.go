// Package tokenizer turns raw text and query strings into the normalised term
// sequences the analyzers consume. It lower-cases input, splits on
// non-alphanumeric boundaries, drops stop-words and applies a small
// suffix-stripping stemmer.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

type suffixRule struct {
	suffix      string
	replacement string
	minLen      int
}

var suffixRules = []suffixRule{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"ed", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// Tokenizer holds normalisation switches. The zero value keeps stop-words and
// does not stem; use Default for the search pipeline settings.
type Tokenizer struct {
	Stem          bool
	DropStopWords bool
	MinLength     int
}

// Default returns the tokenizer used for both documents and queries.
func Default() Tokenizer {
	return Tokenizer{Stem: true, DropStopWords: true, MinLength: 2}
}

// Tokenize normalises text with the Default tokenizer.
func Tokenize(text string) []string {
	return Default().Tokenize(text)
}

// Tokenize splits text into normalised terms, preserving their order.
func (t Tokenizer) Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < t.MinLength {
			continue
		}
		if t.DropStopWords {
			if _, isStop := stopWords[word]; isStop {
				continue
			}
		}
		if t.Stem {
			word = stem(word)
		}
		if word == "" {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// stem applies the first matching suffix rule whose result stays long enough.
func stem(word string) string {
	for _, rule := range suffixRules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		stemmed := word[:len(word)-len(rule.suffix)] + rule.replacement
		if len(stemmed) >= rule.minLen {
			return stemmed
		}
	}
	return word
}
