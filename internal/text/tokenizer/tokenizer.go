// Package tokenizer splits review text into unigram tokens. It lower-cases
// input, splits on anything that is not a letter, digit or in-word
// apostrophe, and yields tokens lazily so callers can filter and count
// without materialising the token list.
package tokenizer

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Document is a piece of text keyed by its review index.
type Document struct {
	ID   int
	Text string
}

// Occurrence is one token seen in one document.
type Occurrence struct {
	Doc   int
	Token string
}

// Tokenizer holds tokenisation options.
type Tokenizer struct {
	// MinLength drops tokens shorter than this many runes.
	MinLength int
}

// New creates a Tokenizer. minLength values below 1 are treated as 1.
func New(minLength int) *Tokenizer {
	if minLength < 1 {
		minLength = 1
	}
	return &Tokenizer{MinLength: minLength}
}

// Tokenize yields the tokens of a single document with the default options.
func Tokenize(doc int, text string) iter.Seq[Occurrence] {
	return New(1).Tokenize(doc, text)
}

// Tokenize yields (doc, token) pairs for text in reading order.
func (t *Tokenizer) Tokenize(doc int, text string) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		start := -1
		for i := 0; i <= len(text); {
			r, size := rune(0), 1
			if i < len(text) {
				r, size = utf8.DecodeRuneInString(text[i:])
			}
			inWord := i < len(text) && isWordRune(r, text, i, size)
			switch {
			case inWord && start < 0:
				start = i
			case !inWord && start >= 0:
				if tok, ok := t.normalize(text[start:i]); ok {
					if !yield(Occurrence{Doc: doc, Token: tok}) {
						return
					}
				}
				start = -1
			}
			i += size
		}
	}
}

// TokenizeAll yields the tokens of every document, one document after the
// other.
func (t *Tokenizer) TokenizeAll(docs []Document) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		for _, d := range docs {
			for occ := range t.Tokenize(d.ID, d.Text) {
				if !yield(occ) {
					return
				}
			}
		}
	}
}

func (t *Tokenizer) normalize(raw string) (string, bool) {
	tok := strings.ToLower(strings.ReplaceAll(raw, "’", "'"))
	tok = strings.Trim(tok, "'")
	if tok == "" || utf8.RuneCountInString(tok) < t.MinLength {
		return "", false
	}
	return tok, true
}

// isWordRune reports whether the rune at text[i:i+size] belongs to a token.
// Apostrophes count only between two letters, so "don't" stays whole while
// quoted words lose their quotes.
func isWordRune(r rune, text string, i, size int) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	if r != '\'' && r != '’' {
		return false
	}
	if i == 0 || i+size >= len(text) {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	next, _ := utf8.DecodeRuneInString(text[i+size:])
	return unicode.IsLetter(prev) && unicode.IsLetter(next)
}
