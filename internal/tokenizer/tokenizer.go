// Package tokenizer turns a source string into the set of words indexed by
// the translation memory. It splits on a fixed separator class, lower-cases,
// and drops one-letter tokens, repeated tokens and stop words.
package tokenizer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separators is the fixed word separator class.
const Separators = " \t\r\n\\~`!@#$%^&*()-_=+|[]{};:'\"<>,./?"

// DefaultStopWords are so common in English that indexing them is useless.
var DefaultStopWords = []string{"a", "an", "have", "of", "the", "will"}

// Tokenizer is safe for concurrent use; it is immutable after construction.
type Tokenizer struct {
	stopWords map[string]struct{}
}

// New returns a tokenizer with the given stop words (matched case-insensitively).
// A nil slice means no stop words.
func New(stopWords []string) *Tokenizer {
	lower := cases.Lower(language.Und)
	t := &Tokenizer{stopWords: make(map[string]struct{}, len(stopWords))}
	for _, w := range stopWords {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		t.stopWords[lower.String(w)] = struct{}{}
	}
	return t
}

// Default returns a tokenizer using DefaultStopWords.
func Default() *Tokenizer {
	return New(DefaultStopWords)
}

// Tokenize returns the distinct indexable words of text in order of first
// appearance. Callers should treat the result as a set.
func Tokenize(text string) []string {
	return Default().Tokenize(text)
}

// Tokenize returns the distinct indexable words of text.
func (t *Tokenizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, isSeparator)
	if len(fields) == 0 {
		return nil
	}
	lower := cases.Lower(language.Und)
	words := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		w := lower.String(f)
		if utf8.RuneCountInString(w) == 1 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		if _, stop := t.stopWords[w]; stop {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	if len(words) == 0 {
		return nil
	}
	return words
}

// IsStopWord reports whether w is in the stop-word set.
func (t *Tokenizer) IsStopWord(w string) bool {
	_, ok := t.stopWords[cases.Lower(language.Und).String(w)]
	return ok
}

func isSeparator(r rune) bool {
	return strings.ContainsRune(Separators, r)
}
