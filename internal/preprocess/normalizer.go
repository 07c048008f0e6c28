// Package preprocess turns raw text into the normalized form the model was trained on.
// Normalize must stay byte-for-byte identical to the training pipeline's preprocessing.
package preprocess

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Punctuation is the ASCII punctuation set removed during normalization.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var punctuationTable = func() (table [128]bool) {
	for i := 0; i < len(Punctuation); i++ {
		table[Punctuation[i]] = true
	}
	return table
}()

// Normalizer lowercases, strips punctuation, collapses whitespace and drops stopwords.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	stopwords StopwordSet
}

// NewNormalizer creates a normalizer over the given stopword set.
func NewNormalizer(stopwords StopwordSet) *Normalizer {
	return &Normalizer{stopwords: stopwords}
}

// Normalize returns the normalized text: tokens joined by single spaces.
// The result is empty when the input is only punctuation, whitespace or stopwords.
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Tokens(text), " ")
}

// Tokens returns the normalized token sequence of text.
func (n *Normalizer) Tokens(text string) []string {
	// cases.Caser is stateful, so one is built per call.
	lowered := cases.Lower(language.Und).String(text)
	stripped := strings.Map(dropPunctuation, lowered)

	fields := strings.FieldsFunc(stripped, isSpace)
	tokens := fields[:0]
	for _, field := range fields {
		if n.stopwords.Contains(field) {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// StopwordCount returns the size of the stopword set in use.
func (n *Normalizer) StopwordCount() int {
	return n.stopwords.Len()
}

// TokenCount returns the number of space separated tokens in normalized text.
func TokenCount(normalized string) int {
	return len(strings.Fields(normalized))
}

func dropPunctuation(r rune) rune {
	if r < 128 && punctuationTable[r] {
		return -1
	}
	return r
}

// isSpace matches the whitespace definition used by the training pipeline's
// str.split(), which also treats the ASCII file/group/record/unit separators as spaces.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
