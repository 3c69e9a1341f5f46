package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/features"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/postgres"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS feature_runs (
	run_id       TEXT PRIMARY KEY,
	created_at   TIMESTAMPTZ NOT NULL,
	documents    INTEGER NOT NULL,
	min_doc_freq INTEGER NOT NULL,
	train_docs   INTEGER NOT NULL,
	test_docs    INTEGER NOT NULL,
	terms        TEXT[] NOT NULL
);
CREATE TABLE IF NOT EXISTS feature_entries (
	run_id  TEXT NOT NULL REFERENCES feature_runs(run_id) ON DELETE CASCADE,
	doc     INTEGER NOT NULL,
	term    TEXT NOT NULL,
	n       INTEGER NOT NULL,
	tf      DOUBLE PRECISION NOT NULL,
	idf     DOUBLE PRECISION NOT NULL,
	tf_idf  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, doc, term)
);
CREATE TABLE IF NOT EXISTS feature_targets (
	run_id  TEXT NOT NULL REFERENCES feature_runs(run_id) ON DELETE CASCADE,
	doc     INTEGER NOT NULL,
	target  DOUBLE PRECISION NOT NULL,
	split   TEXT NOT NULL,
	PRIMARY KEY (run_id, doc)
)`

// Postgres parameters are capped at 65535 per statement.
const entryBatch = 1000

// Transactor runs a function inside a database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx postgres.Execer) error) error
}

// PostgresSink writes a run, its weighted entries and its targets in one
// transaction. Re-exporting a run ID replaces it.
type PostgresSink struct {
	db Transactor
}

func NewPostgresSink(db Transactor) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Close() error {
	if c, ok := s.db.(Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *PostgresSink) Export(ctx context.Context, snap *Snapshot) error {
	sum := snap.Summary()
	return s.db.InTx(ctx, func(tx postgres.Execer) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM feature_runs WHERE run_id = $1`, snap.RunID); err != nil {
			return fmt.Errorf("clearing run %s: %w", snap.RunID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feature_runs (run_id, created_at, documents, min_doc_freq, train_docs, test_docs, terms)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			snap.RunID, sum.CreatedAt, sum.Documents, sum.MinDocFreq, sum.Train, sum.Test,
			pq.Array(snap.Vocabulary.Terms()),
		); err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}

		for start := 0; start < len(snap.Entries); start += entryBatch {
			end := min(start+entryBatch, len(snap.Entries))
			query, args := entryInsert(snap.RunID, snap.Entries[start:end])
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("inserting entries %d-%d: %w", start, end, err)
			}
		}

		docs := snap.Matrix.DocIDs()
		for start := 0; start < len(docs); start += entryBatch {
			end := min(start+entryBatch, len(docs))
			query, args := targetInsert(snap, docs[start:end])
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("inserting targets %d-%d: %w", start, end, err)
			}
		}
		return nil
	})
}

func entryInsert(runID string, entries []features.Entry) (string, []any) {
	const cols = 7
	var b strings.Builder
	b.WriteString("INSERT INTO feature_entries (run_id, doc, term, n, tf, idf, tf_idf) VALUES ")
	args := make([]any, 0, len(entries)*cols)
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(',')
		}
		writePlaceholders(&b, i*cols, cols)
		args = append(args, runID, e.Doc, e.Token, e.N, e.TF, e.IDF, e.TFIDF)
	}
	return b.String(), args
}

func targetInsert(snap *Snapshot, docs []int) (string, []any) {
	const cols = 4
	var b strings.Builder
	b.WriteString("INSERT INTO feature_targets (run_id, doc, target, split) VALUES ")
	args := make([]any, 0, len(docs)*cols)
	for i, doc := range docs {
		if i > 0 {
			b.WriteByte(',')
		}
		writePlaceholders(&b, i*cols, cols)
		target, _ := snap.Metadata.Target(doc)
		args = append(args, snap.RunID, doc, target, snap.SplitOf(doc))
	}
	return b.String(), args
}

// writePlaceholders writes "($base+1, ..., $base+n)".
func writePlaceholders(b *strings.Builder, base, n int) {
	b.WriteByte('(')
	for k := 1; k <= n; k++ {
		if k > 1 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "$%d", base+k)
	}
	b.WriteByte(')')
}
