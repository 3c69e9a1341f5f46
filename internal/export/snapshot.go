// Package export hands a finished run to its sinks: local files, PostgreSQL,
// Redis and Kafka. Nothing is exported unless every stage succeeded.
package export

import (
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/features"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/split"
)

// Split labels.
const (
	SplitTrain = "train"
	SplitTest  = "test"
)

// Snapshot is everything a sink may persist about one run.
type Snapshot struct {
	RunID      string
	CreatedAt  time.Time
	Entries    []features.Entry
	Vocabulary *features.Vocabulary
	Matrix     *features.Matrix
	Metadata   *features.Metadata
	Partition  split.Partition

	splitOnce sync.Once
	splitOf   map[int]string
}

// SplitOf returns "train" or "test" for doc, or "" when doc is in neither.
// It is safe for concurrent use by sinks.
func (s *Snapshot) SplitOf(doc int) string {
	s.splitOnce.Do(func() {
		s.splitOf = make(map[int]string, len(s.Partition.Train)+len(s.Partition.Test))
		for _, d := range s.Partition.Train {
			s.splitOf[d] = SplitTrain
		}
		for _, d := range s.Partition.Test {
			s.splitOf[d] = SplitTest
		}
	})
	return s.splitOf[doc]
}

// DocumentRow is one matrix row with its target and split label. Features
// hold only stored cells.
type DocumentRow struct {
	RunID    string             `json:"run_id"`
	Doc      int                `json:"doc"`
	Target   float64            `json:"target"`
	Split    string             `json:"split"`
	Features map[string]float64 `json:"features"`
}

// Rows returns one DocumentRow per matrix row, in matrix order.
func (s *Snapshot) Rows() []DocumentRow {
	docs := s.Matrix.DocIDs()
	rows := make([]DocumentRow, 0, len(docs))
	for _, doc := range docs {
		target, _ := s.Metadata.Target(doc)
		cells, _ := s.Matrix.Row(doc)
		rows = append(rows, DocumentRow{
			RunID:    s.RunID,
			Doc:      doc,
			Target:   target,
			Split:    s.SplitOf(doc),
			Features: cells,
		})
	}
	return rows
}

// Summary is the run-level record written alongside the rows.
type Summary struct {
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
	Documents  int       `json:"documents"`
	Terms      int       `json:"terms"`
	Entries    int       `json:"entries"`
	MinDocFreq int       `json:"min_doc_freq"`
	Train      int       `json:"train"`
	Test       int       `json:"test"`
}

func (s *Snapshot) Summary() Summary {
	docs, terms := s.Matrix.Dims()
	return Summary{
		RunID:      s.RunID,
		CreatedAt:  s.CreatedAt,
		Documents:  docs,
		Terms:      terms,
		Entries:    len(s.Entries),
		MinDocFreq: s.Vocabulary.MinDocFreq(),
		Train:      len(s.Partition.Train),
		Test:       len(s.Partition.Test),
	}
}
