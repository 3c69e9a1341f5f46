// Package split partitions documents into train and test sets, stratified
// on the distribution of a numeric target.
package split

import (
	"math"
	"math/rand/v2"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/logger"
	"gonum.org/v1/gonum/stat"
)

// Options controls the partition. Strata is the number of quantile break
// points, so Strata-1 groups at most.
type Options struct {
	TrainFraction float64
	Strata        int
	Seed          uint64
}

// Partition holds document indices, each slice in ascending order.
type Partition struct {
	Train []int `json:"train"`
	Test  []int `json:"test"`
}

// Stratified cuts targets into quantile groups and draws
// ceil(TrainFraction * groupSize) training documents from each group. Groups
// of one document go entirely to training. The same seed and targets always
// give the same partition.
func Stratified(targets map[int]float64, opts Options) (Partition, error) {
	if len(targets) == 0 {
		return Partition{}, apperrors.EmptyResult("split", 0, "no documents to split")
	}
	docs := make([]int, 0, len(targets))
	for doc := range targets {
		docs = append(docs, doc)
	}
	sort.Ints(docs)

	groups := stratify(docs, targets, opts.Strata)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))

	inTrain := make(map[int]bool, len(docs))
	for _, members := range groups {
		if len(members) == 1 {
			inTrain[members[0]] = true
			continue
		}
		n := int(math.Ceil(float64(len(members))*opts.TrainFraction - 1e-9))
		picked := make([]int, len(members))
		copy(picked, members)
		rng.Shuffle(len(picked), func(i, j int) {
			picked[i], picked[j] = picked[j], picked[i]
		})
		for _, doc := range picked[:n] {
			inTrain[doc] = true
		}
	}

	var p Partition
	for _, doc := range docs {
		if inTrain[doc] {
			p.Train = append(p.Train, doc)
		} else {
			p.Test = append(p.Test, doc)
		}
	}
	logger.WithComponent("split").Info("documents partitioned",
		"groups", len(groups),
		"train", len(p.Train),
		"test", len(p.Test),
	)
	return p, nil
}

// stratify assigns each doc to a quantile interval of its target. Intervals
// are closed on the right, the first one also on the left. Docs keep
// ascending order inside each group and groups are ordered by interval.
func stratify(docs []int, targets map[int]float64, strata int) [][]int {
	values := make([]float64, len(docs))
	for i, doc := range docs {
		values[i] = targets[doc]
	}
	sort.Float64s(values)

	if strata < 2 {
		strata = 2
	}
	breaks := make([]float64, 0, strata)
	for k := 0; k < strata; k++ {
		var q float64
		switch k {
		case 0:
			q = values[0]
		case strata - 1:
			q = values[len(values)-1]
		default:
			q = stat.Quantile(float64(k)/float64(strata-1), stat.Empirical, values, nil)
		}
		if len(breaks) == 0 || q > breaks[len(breaks)-1] {
			breaks = append(breaks, q)
		}
	}
	if len(breaks) < 2 {
		return [][]int{docs}
	}

	groups := make([][]int, len(breaks)-1)
	for _, doc := range docs {
		g := sort.SearchFloat64s(breaks, targets[doc]) - 1
		if g < 0 {
			g = 0
		}
		groups[g] = append(groups[g], doc)
	}
	nonEmpty := groups[:0]
	for _, members := range groups {
		if len(members) > 0 {
			nonEmpty = append(nonEmpty, members)
		}
	}
	return nonEmpty
}
