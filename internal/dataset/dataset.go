// Package dataset assembles the train/test matrices handed to an external
// regressor, and shapes its outputs into tables for plotting.
package dataset

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/features"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/split"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a keyed train/test view of the document-term matrix. Row i of
// TrainX and element i of TrainY both belong to TrainIDs[i]; likewise for
// test. TestX and TestY are nil when the test set is empty.
type Dataset struct {
	Terms    []string
	TrainIDs []int
	TestIDs  []int
	TrainX   *mat.Dense
	TrainY   *mat.VecDense
	TestX    *mat.Dense
	TestY    *mat.VecDense
}

// Assemble slices m and meta by the partition. Partition documents missing
// from the matrix are an alignment error.
func Assemble(m *features.Matrix, meta *features.Metadata, p split.Partition) (*Dataset, error) {
	if len(p.Train) == 0 {
		return nil, apperrors.EmptyResult("dataset", 0, "training partition is empty")
	}
	ds := &Dataset{
		Terms:    m.Terms(),
		TrainIDs: p.Train,
		TestIDs:  p.Test,
	}
	var err error
	if ds.TrainX, ds.TrainY, err = slice(m, meta, p.Train); err != nil {
		return nil, fmt.Errorf("assembling training set: %w", err)
	}
	if len(p.Test) > 0 {
		if ds.TestX, ds.TestY, err = slice(m, meta, p.Test); err != nil {
			return nil, fmt.Errorf("assembling test set: %w", err)
		}
	}
	return ds, nil
}

func slice(m *features.Matrix, meta *features.Metadata, docs []int) (*mat.Dense, *mat.VecDense, error) {
	x, err := m.Dense(docs)
	if err != nil {
		return nil, nil, err
	}
	y, err := meta.Vector(docs)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// Pair is one test document's observed and predicted target.
type Pair struct {
	Doc       int     `json:"doc"`
	Target    float64 `json:"target"`
	Predicted float64 `json:"predicted"`
}

// Pairs zips the test targets with predictions made on TestX, row by row.
func (ds *Dataset) Pairs(predictions []float64) ([]Pair, error) {
	if len(predictions) != len(ds.TestIDs) {
		return nil, apperrors.Alignment("dataset", len(ds.TestIDs),
			"got %d predictions for %d test documents", len(predictions), len(ds.TestIDs))
	}
	pairs := make([]Pair, len(predictions))
	for i, doc := range ds.TestIDs {
		pairs[i] = Pair{Doc: doc, Target: ds.TestY.AtVec(i), Predicted: predictions[i]}
	}
	return pairs, nil
}

// TermScore is one term's importance as reported by a regressor.
type TermScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// RankImportance pairs per-column scores with their terms and sorts them by
// descending score, then term.
func (ds *Dataset) RankImportance(scores []float64) ([]TermScore, error) {
	if len(scores) != len(ds.Terms) {
		return nil, apperrors.Alignment("dataset", len(ds.Terms),
			"got %d importance scores for %d terms", len(scores), len(ds.Terms))
	}
	ranked := make([]TermScore, len(scores))
	for i, s := range scores {
		ranked[i] = TermScore{Term: ds.Terms[i], Score: s}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Term < ranked[j].Term
	})
	return ranked, nil
}
