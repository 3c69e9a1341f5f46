// Package explore summarizes cleaned reviews before feature extraction:
// per-variable moments, aspect/ABV correlation and a principal component
// view of the five aspect scores.
package explore

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/loader"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/logger"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const stage = "explore"

// Variable summarizes one numeric column.
type Variable struct {
	Name   string  `json:"name"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// CorrABV is the Pearson correlation with ABV. Zero when either column
	// is constant.
	CorrABV float64 `json:"corr_abv"`
}

// Component is one principal axis of the standardized aspect scores.
type Component struct {
	Variance      float64    `json:"variance"`
	VarianceRatio float64    `json:"variance_ratio"`
	Loadings      [5]float64 `json:"loadings"`
}

type Summary struct {
	Records    int         `json:"records"`
	Variables  []Variable  `json:"variables"`
	Components []Component `json:"components"`
}

// Summarize computes the summary over reviews. At least two records are
// needed for variances to be defined.
func Summarize(reviews []loader.Review) (*Summary, error) {
	if len(reviews) < 2 {
		return nil, apperrors.EmptyResult(stage, len(reviews), "need at least 2 records, have %d", len(reviews))
	}

	n := len(reviews)
	abv := make([]float64, n)
	aspects := mat.NewDense(n, len(loader.AspectNames), nil)
	for i, r := range reviews {
		abv[i] = r.ABV
		a := r.Aspects()
		aspects.SetRow(i, a[:])
	}

	s := &Summary{Records: n}
	s.Variables = append(s.Variables, describe("abv", abv, abv))
	for j, name := range loader.AspectNames {
		s.Variables = append(s.Variables, describe(name, mat.Col(nil, j, aspects), abv))
	}

	components, err := principalComponents(aspects)
	if err != nil {
		return nil, err
	}
	s.Components = components

	logger.WithComponent(stage).Info("summary computed",
		"records", n,
		"components", len(components),
	)
	return s, nil
}

func describe(name string, x, abv []float64) Variable {
	mean, std := stat.MeanStdDev(x, nil)
	v := Variable{
		Name:   name,
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(x),
		Max:    floats.Max(x),
	}
	if _, abvStd := stat.MeanStdDev(abv, nil); std > 0 && abvStd > 0 {
		v.CorrABV = stat.Correlation(x, abv, nil)
	}
	return v
}

// principalComponents standardizes each column (constant columns are only
// centred) and runs PCA on the result.
func principalComponents(x *mat.Dense) ([]Component, error) {
	r, c := x.Dims()
	z := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, x)
		mean, std := stat.MeanStdDev(col, nil)
		for i := range col {
			col[i] -= mean
			if std > 0 {
				col[i] /= std
			}
		}
		z.SetCol(j, col)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(z, nil); !ok {
		return nil, fmt.Errorf("%s: principal component decomposition of %d records failed", stage, r)
	}
	vars := pc.VarsTo(nil)
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	total := floats.Sum(vars)
	components := make([]Component, len(vars))
	for k, v := range vars {
		components[k].Variance = v
		if total > 0 {
			components[k].VarianceRatio = v / total
		}
		for j := 0; j < c && j < len(components[k].Loadings); j++ {
			components[k].Loadings[j] = vecs.At(j, k)
		}
	}
	return components, nil
}
