// Package stopwords removes low-information tokens from a token stream. The
// stopword set is an explicit value handed to Filter, never package state.
package stopwords

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/text/tokenizer"
)

// Set is an immutable-by-convention set of lower-cased stopwords.
type Set map[string]struct{}

// New builds a Set from words, lower-casing and trimming each.
func New(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

// Contains reports whether token is a stopword.
func (s Set) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// With returns a new Set holding the union of s and words.
func (s Set) With(words ...string) Set {
	out := make(Set, len(s)+len(words))
	for w := range s {
		out[w] = struct{}{}
	}
	for w := range New(words...) {
		out[w] = struct{}{}
	}
	return out
}

// Filter yields the occurrences of seq whose token is not in s.
func (s Set) Filter(seq iter.Seq[tokenizer.Occurrence]) iter.Seq[tokenizer.Occurrence] {
	return func(yield func(tokenizer.Occurrence) bool) {
		for occ := range seq {
			if s.Contains(occ.Token) {
				continue
			}
			if !yield(occ) {
				return
			}
		}
	}
}

// FromFile reads one stopword per line. Blank lines and lines starting with
// '#' are skipped.
func FromFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopword file: %w", err)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stopword file: %w", err)
	}
	return New(words...), nil
}

// Resolve maps a configured stopword source to a Set: "english" for the
// built-in list, "none" for an empty set, anything else is a file path.
func Resolve(source string, extra []string) (Set, error) {
	var base Set
	switch source {
	case "", "english":
		base = English()
	case "none":
		base = New()
	default:
		s, err := FromFile(source)
		if err != nil {
			return nil, err
		}
		base = s
	}
	return base.With(extra...), nil
}

// English returns a fresh copy of the built-in English stopword list.
func English() Set {
	return New(english...)
}

var english = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am",
	"an", "and", "any", "are", "aren't", "as", "at", "be", "because", "been",
	"before", "being", "below", "between", "both", "but", "by", "can",
	"can't", "cannot", "could", "couldn't", "did", "didn't", "do", "does",
	"doesn't", "doing", "don't", "down", "during", "each", "few", "for",
	"from", "further", "get", "got", "had", "hadn't", "has", "hasn't", "have",
	"haven't", "having", "he", "he'd", "he'll", "he's", "her", "here",
	"here's", "hers", "herself", "him", "himself", "his", "how", "how's", "i",
	"i'd", "i'll", "i'm", "i've", "if", "in", "into", "is", "isn't", "it",
	"it's", "its", "itself", "just", "let's", "me", "more", "most",
	"mustn't", "my", "myself", "no", "nor", "not", "of", "off", "on", "once",
	"only", "or", "other", "ought", "our", "ours", "ourselves", "out",
	"over", "own", "same", "shan't", "she", "she'd", "she'll", "she's",
	"should", "shouldn't", "so", "some", "such", "than", "that", "that's",
	"the", "their", "theirs", "them", "themselves", "then", "there",
	"there's", "these", "they", "they'd", "they'll", "they're", "they've",
	"this", "those", "through", "to", "too", "under", "until", "up", "very",
	"was", "wasn't", "we", "we'd", "we'll", "we're", "we've", "were",
	"weren't", "what", "what's", "when", "when's", "where", "where's",
	"which", "while", "who", "who's", "whom", "why", "why's", "will", "with",
	"won't", "would", "wouldn't", "you", "you'd", "you'll", "you're",
	"you've", "your", "yours", "yourself", "yourselves",
}
