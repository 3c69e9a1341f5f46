package features

import (
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
)

// DocumentFrequencies counts, for each token, the number of distinct
// documents containing it.
func DocumentFrequencies(t *CountTable) map[string]int {
	df := make(map[string]int)
	for _, terms := range t.docs {
		for tok := range terms {
			df[tok]++
		}
	}
	return df
}

// Vocabulary is the fixed, sorted set of retained tokens.
type Vocabulary struct {
	terms      []string
	index      map[string]int
	docFreq    map[string]int
	minDocFreq int
}

// SelectVocabulary keeps the tokens that occur in at least minDocFreq
// documents of t.
func SelectVocabulary(t *CountTable, minDocFreq int) (*Vocabulary, error) {
	df := DocumentFrequencies(t)
	v := &Vocabulary{
		index:      make(map[string]int),
		docFreq:    make(map[string]int),
		minDocFreq: minDocFreq,
	}
	for tok, n := range df {
		if n >= minDocFreq {
			v.terms = append(v.terms, tok)
			v.docFreq[tok] = n
		}
	}
	if len(v.terms) == 0 {
		return nil, apperrors.EmptyResult("vocabulary", t.DocCount(),
			"no token occurs in %d or more documents (%d distinct tokens)", minDocFreq, len(df))
	}
	sort.Strings(v.terms)
	for i, tok := range v.terms {
		v.index[tok] = i
	}
	return v, nil
}

// Terms returns the retained tokens in ascending order. The slice must not
// be modified.
func (v *Vocabulary) Terms() []string {
	return v.terms
}

func (v *Vocabulary) Len() int {
	return len(v.terms)
}

func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.index[token]
	return ok
}

// Column returns the column position of token, or -1.
func (v *Vocabulary) Column(token string) int {
	if i, ok := v.index[token]; ok {
		return i
	}
	return -1
}

// DocFreq returns the document frequency recorded when token was selected.
func (v *Vocabulary) DocFreq(token string) int {
	return v.docFreq[token]
}

func (v *Vocabulary) MinDocFreq() int {
	return v.minDocFreq
}

// Restrict returns a copy of t holding only vocabulary tokens. Documents left
// with no tokens are dropped.
func Restrict(t *CountTable, v *Vocabulary) *CountTable {
	out := NewCountTable()
	for doc, terms := range t.docs {
		for tok, n := range terms {
			if v.Contains(tok) {
				out.Add(doc, tok, n)
			}
		}
	}
	return out
}
