// Package features turns filtered token streams into a tf-idf weighted
// document-term matrix. Every structure is keyed by document index; row
// positions are derived from sorted keys and never assumed from input order.
package features

import (
	"iter"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/text/tokenizer"
)

// Count is one (document, token, raw count) row.
type Count struct {
	Doc   int    `json:"doc"`
	Token string `json:"token"`
	N     int    `json:"n"`
}

// CountTable holds token counts per document. Documents with no tokens are
// absent, never present with zero counts.
type CountTable struct {
	docs   map[int]map[string]int
	tokens int
}

// NewCountTable returns an empty table.
func NewCountTable() *CountTable {
	return &CountTable{docs: make(map[int]map[string]int)}
}

// CountTokens groups a token stream by (document, token).
func CountTokens(seq iter.Seq[tokenizer.Occurrence]) *CountTable {
	t := NewCountTable()
	for occ := range seq {
		t.Add(occ.Doc, occ.Token, 1)
	}
	return t
}

// Add increments the count of token in doc by n. Non-positive n is ignored.
func (t *CountTable) Add(doc int, token string, n int) {
	if n <= 0 {
		return
	}
	terms, ok := t.docs[doc]
	if !ok {
		terms = make(map[string]int)
		t.docs[doc] = terms
	}
	terms[token] += n
	t.tokens += n
}

// Get returns the count of token in doc.
func (t *CountTable) Get(doc int, token string) int {
	return t.docs[doc][token]
}

// DocCount is the number of documents with at least one token.
func (t *CountTable) DocCount() int {
	return len(t.docs)
}

// Len is the number of (document, token) rows.
func (t *CountTable) Len() int {
	n := 0
	for _, terms := range t.docs {
		n += len(terms)
	}
	return n
}

// Total is the sum of all counts.
func (t *CountTable) Total() int {
	return t.tokens
}

// DocTotal is the sum of counts within doc.
func (t *CountTable) DocTotal(doc int) int {
	total := 0
	for _, n := range t.docs[doc] {
		total += n
	}
	return total
}

// Docs returns the document indices in ascending order.
func (t *CountTable) Docs() []int {
	docs := make([]int, 0, len(t.docs))
	for doc := range t.docs {
		docs = append(docs, doc)
	}
	sort.Ints(docs)
	return docs
}

// Rows returns every row ordered by document, then token.
func (t *CountTable) Rows() []Count {
	rows := make([]Count, 0, t.Len())
	for _, doc := range t.Docs() {
		terms := t.docs[doc]
		tokens := make([]string, 0, len(terms))
		for tok := range terms {
			tokens = append(tokens, tok)
		}
		sort.Strings(tokens)
		for _, tok := range tokens {
			rows = append(rows, Count{Doc: doc, Token: tok, N: terms[tok]})
		}
	}
	return rows
}
