package explore

import (
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/loader"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func review(abv, appearance, aroma, overall, palate, taste float64) loader.Review {
	return loader.Review{ABV: abv, Appearance: appearance, Aroma: aroma, Overall: overall, Palate: palate, Taste: taste}
}

func TestSummarize(t *testing.T) {
	reviews := []loader.Review{
		review(4.0, 3.0, 3.0, 4.0, 3.0, 3.0),
		review(5.0, 3.5, 3.5, 4.0, 3.5, 3.0),
		review(6.0, 4.0, 4.0, 4.0, 4.0, 3.0),
		review(9.0, 4.5, 5.0, 4.0, 2.0, 3.0),
	}
	s, err := Summarize(reviews)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Records)
	require.Len(t, s.Variables, 6)

	abv := s.Variables[0]
	assert.Equal(t, "abv", abv.Name)
	assert.InDelta(t, 6.0, abv.Mean, 1e-12)
	assert.Equal(t, 4.0, abv.Min)
	assert.Equal(t, 9.0, abv.Max)
	assert.InDelta(t, 1.0, abv.CorrABV, 1e-12)

	appearance := s.Variables[1]
	assert.Equal(t, "appearance", appearance.Name)
	assert.Greater(t, appearance.CorrABV, 0.9)

	overall := s.Variables[3]
	assert.Zero(t, overall.StdDev)
	assert.Zero(t, overall.CorrABV, "constant column has no defined correlation")

	require.NotEmpty(t, s.Components)
	ratio := 0.0
	for i, c := range s.Components {
		ratio += c.VarianceRatio
		assert.False(t, math.IsNaN(c.Variance))
		if i > 0 {
			assert.LessOrEqual(t, c.Variance, s.Components[i-1].Variance)
		}
	}
	assert.InDelta(t, 1.0, ratio, 1e-9)
}

func TestSummarize_TooFewRecords(t *testing.T) {
	_, err := Summarize([]loader.Review{review(5, 4, 4, 4, 4, 4)})
	assert.ErrorIs(t, err, apperrors.ErrEmptyResult)
}
