package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/export/matrixfile"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/features"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/split"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(t *testing.T) *Snapshot {
	t.Helper()
	table := features.NewCountTable()
	table.Add(1, "hops", 2)
	table.Add(1, "malt", 1)
	table.Add(2, "malt", 3)
	table.Add(3, "hops", 1)
	table.Add(3, "roast", 1)
	vocab, err := features.SelectVocabulary(table, 1)
	require.NoError(t, err)
	entries, err := features.Weight(table)
	require.NoError(t, err)
	meta := features.NewMetadata([]features.MetaRow{{Doc: 1, Target: 5.0}, {Doc: 2, Target: 4.5}, {Doc: 3, Target: 8.0}})
	m, aligned, err := features.BuildMatrix(entries, vocab, meta)
	require.NoError(t, err)
	return &Snapshot{
		RunID:      "run-1",
		CreatedAt:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Entries:    entries,
		Vocabulary: vocab,
		Matrix:     m,
		Metadata:   aligned,
		Partition:  split.Partition{Train: []int{1, 3}, Test: []int{2}},
	}
}

func TestSnapshot_Rows(t *testing.T) {
	snap := snapshot(t)
	rows := snap.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[1].Doc)
	assert.Equal(t, SplitTest, rows[1].Split)
	assert.Equal(t, 4.5, rows[1].Target)
	assert.Len(t, rows[0].Features, 2)

	sum := snap.Summary()
	assert.Equal(t, 3, sum.Documents)
	assert.Equal(t, 3, sum.Terms)
	assert.Equal(t, 2, sum.Train)
	assert.Equal(t, "", snap.SplitOf(99))
}

func TestCSVSink(t *testing.T) {
	snap := snapshot(t)
	sink := &CSVSink{Path: filepath.Join(t.TempDir(), "out", "features.csv")}
	require.NoError(t, sink.Export(context.Background(), snap))

	records := readCSV(t, sink.Path)
	assert.Equal(t, []string{"doc", "term", "n", "tf", "idf", "tf_idf"}, records[0])
	assert.Len(t, records, len(snap.Entries)+1)
	assert.Equal(t, "1", records[1][0])

	assert.True(t, strings.HasSuffix(sink.MetadataPath(), "features_metadata.csv"))
	meta := readCSV(t, sink.MetadataPath())
	assert.Equal(t, [][]string{{"doc", "target", "split"}, {"1", "5", "train"}, {"2", "4.5", "test"}, {"3", "8", "train"}}, meta)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestMatrixFileSink(t *testing.T) {
	snap := snapshot(t)
	sink := &MatrixFileSink{Dir: t.TempDir()}
	require.NoError(t, sink.Export(context.Background(), snap))
	assert.True(t, strings.HasSuffix(sink.Written, "run-1.btdm"))

	r, err := matrixfile.Open(sink.Written)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, snap.Matrix.DocIDs(), r.DocIDs())
}

type fakeTx struct {
	queries []string
	args    [][]any
	failOn  string
}

func (f *fakeTx) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return nil, errors.New("constraint violation")
	}
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	return nil, nil
}

type fakeDB struct {
	tx        *fakeTx
	committed bool
}

func (d *fakeDB) InTx(_ context.Context, fn func(tx postgres.Execer) error) error {
	if err := fn(d.tx); err != nil {
		return err
	}
	d.committed = true
	return nil
}

func TestPostgresSink(t *testing.T) {
	snap := snapshot(t)
	db := &fakeDB{tx: &fakeTx{}}
	require.NoError(t, NewPostgresSink(db).Export(context.Background(), snap))
	require.True(t, db.committed)

	q := db.tx.queries
	require.Len(t, q, 5)
	assert.Contains(t, q[0], "CREATE TABLE IF NOT EXISTS feature_runs")
	assert.Contains(t, q[1], "DELETE FROM feature_runs")
	assert.Contains(t, q[3], "INSERT INTO feature_entries")
	assert.Len(t, db.tx.args[3], 7*len(snap.Entries))
	assert.Contains(t, q[3], "$35")
	assert.Contains(t, q[4], "($9, $10, $11, $12)")
	assert.Equal(t, []any{"run-1", 2, 4.5, SplitTest}, db.tx.args[4][4:8])
}

func TestPostgresSink_Rollback(t *testing.T) {
	db := &fakeDB{tx: &fakeTx{failOn: "feature_targets (run_id"}}
	err := NewPostgresSink(db).Export(context.Background(), snapshot(t))
	require.Error(t, err)
	assert.False(t, db.committed)
}

type fakeStore struct {
	mu     sync.Mutex
	hashes []redis.Hash
	lists  map[string][]string
	ttl    time.Duration
}

func (f *fakeStore) StoreHashes(_ context.Context, hashes []redis.Hash, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes = append(f.hashes, hashes...)
	f.ttl = ttl
	return nil
}

func (f *fakeStore) ReplaceList(_ context.Context, key string, values []string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lists == nil {
		f.lists = make(map[string][]string)
	}
	f.lists[key] = values
	return nil
}

func TestRedisSink(t *testing.T) {
	snap := snapshot(t)
	store := &fakeStore{}
	require.NoError(t, NewRedisSink(store, time.Hour).Export(context.Background(), snap))

	assert.Equal(t, []string{"hops", "malt", "roast"}, store.lists["features:run-1:vocabulary"])
	require.Len(t, store.hashes, 3)
	h := store.hashes[2]
	assert.Equal(t, "features:run-1:3", h.Key)
	assert.Equal(t, 8.0, h.Fields[fieldTarget])
	assert.Equal(t, SplitTrain, h.Fields[fieldSplit])
	assert.Contains(t, h.Fields, "roast")
	assert.NotContains(t, h.Fields, "malt")
	assert.Equal(t, time.Hour, store.ttl)
}

type fakePublisher struct {
	events []kafka.Event
	err    error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

func TestKafkaSink(t *testing.T) {
	snap := snapshot(t)
	rows, done := &fakePublisher{}, &fakePublisher{}
	require.NoError(t, NewKafkaSink(rows, done).Export(context.Background(), snap))

	require.Len(t, rows.events, 3)
	assert.Equal(t, "2", rows.events[1].Key)
	assert.Equal(t, 2, rows.events[1].Value.(DocumentRow).Doc)
	require.Len(t, done.events, 1)
	assert.Equal(t, "run-1", done.events[0].Key)
	assert.Equal(t, 3, done.events[0].Value.(Summary).Documents)
}

func TestKafkaSink_NoCompletionAfterFailure(t *testing.T) {
	rows, done := &fakePublisher{err: errors.New("leader not available")}, &fakePublisher{}
	require.Error(t, NewKafkaSink(rows, done).Export(context.Background(), snapshot(t)))
	assert.Empty(t, done.events)
}

type stubSink struct {
	name  string
	fails int
	calls int
	mu    sync.Mutex
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Export(context.Context, *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.fails {
		return errors.New("unavailable")
	}
	return nil
}

func TestExporter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	retry := resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	flaky := &stubSink{name: "flaky", fails: 1}
	steady := &stubSink{name: "steady"}
	exp := NewExporter(m, retry, flaky, steady)
	assert.Equal(t, []string{"flaky", "steady"}, exp.Sinks())
	require.NoError(t, exp.Export(context.Background(), snapshot(t)))
	assert.Equal(t, 2, flaky.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportTotal.WithLabelValues("flaky", "ok")))

	down := &stubSink{name: "down", fails: 10}
	err := NewExporter(m, retry, down).Export(context.Background(), snapshot(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExport)
	assert.Equal(t, apperrors.ExitExport, apperrors.ExitCode(err))
	stage, _ := apperrors.Stage(err)
	assert.Equal(t, "export/down", stage)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportTotal.WithLabelValues("down", "error")))
}

func TestExporter_ConcurrentSinksShareSnapshot(t *testing.T) {
	retry := resilience.RetryConfig{MaxAttempts: 1}
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		rowsA, doneA := &fakePublisher{}, &fakePublisher{}
		rowsB, doneB := &fakePublisher{}, &fakePublisher{}
		exp := NewExporter(nil, retry,
			NewKafkaSink(rowsA, doneA),
			NewKafkaSink(rowsB, doneB),
			&CSVSink{Path: filepath.Join(dir, fmt.Sprintf("a-%d.csv", i))},
			&CSVSink{Path: filepath.Join(dir, fmt.Sprintf("b-%d.csv", i))},
		)
		snap := snapshot(t)
		require.NoError(t, exp.Export(context.Background(), snap))

		require.Len(t, rowsA.events, 3)
		require.Len(t, rowsB.events, 3)
		assert.Equal(t, SplitTest, rowsA.events[1].Value.(DocumentRow).Split)
		assert.Equal(t, SplitTrain, rowsB.events[2].Value.(DocumentRow).Split)
	}
}
