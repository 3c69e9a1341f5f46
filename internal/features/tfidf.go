package features

import (
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
)

// Entry is one weighted (document, token) cell.
type Entry struct {
	Doc   int     `json:"doc"`
	Token string  `json:"token"`
	N     int     `json:"n"`
	TF    float64 `json:"tf"`
	IDF   float64 `json:"idf"`
	TFIDF float64 `json:"tf_idf"`
}

// Weight computes tf-idf for every row of t, which should already be
// restricted to the vocabulary:
//
//	tf    = count / sum of counts in the document
//	idf   = ln(documents in t / documents containing the token)
//	tfidf = tf * idf
//
// A token present in every document gets idf 0. Entries are ordered by
// document, then token.
func Weight(t *CountTable) ([]Entry, error) {
	if t.DocCount() == 0 {
		return nil, apperrors.EmptyResult("weighting", 0, "no documents contain vocabulary tokens")
	}
	totalDocs := float64(t.DocCount())
	df := DocumentFrequencies(t)
	idf := make(map[string]float64, len(df))
	for tok, n := range df {
		idf[tok] = computeIDF(totalDocs, float64(n))
	}

	docTotals := make(map[int]int, t.DocCount())
	for doc := range t.docs {
		docTotals[doc] = t.DocTotal(doc)
	}

	rows := t.Rows()
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		tf := float64(row.N) / float64(docTotals[row.Doc])
		w := idf[row.Token]
		entries = append(entries, Entry{
			Doc:   row.Doc,
			Token: row.Token,
			N:     row.N,
			TF:    tf,
			IDF:   w,
			TFIDF: tf * w,
		})
	}
	return entries, nil
}

// computeIDF returns ln(totalDocs/docFreq); docFreq is at least 1 for any
// token present in the table, and equal document counts give exactly 0.
func computeIDF(totalDocs float64, docFreq float64) float64 {
	if docFreq <= 0 || docFreq >= totalDocs {
		return 0
	}
	return math.Log(totalDocs / docFreq)
}
