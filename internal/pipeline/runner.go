// Package pipeline runs the feature stages in order for one configuration:
// load and clean, tokenize and count, select the vocabulary, weight, build
// the matrix, split and assemble, then export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/export"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/features"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/split"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/text/stopwords"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/internal/text/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/tracing"
	"github.com/google/uuid"
)

// Stage names as they appear in logs, spans and metrics.
const (
	StageLoader     = "loader"
	StageCount      = "count"
	StageVocabulary = "vocabulary"
	StageWeighting  = "weighting"
	StageMatrix     = "matrix"
	StageSplit      = "split"
	StageDataset    = "dataset"
	StageExport     = "export"
)

// StageSummary is one executed stage.
type StageSummary struct {
	Name       string        `json:"name"`
	RecordsIn  int           `json:"records_in"`
	RecordsOut int           `json:"records_out"`
	Duration   time.Duration `json:"duration"`
}

// Result holds every intermediate product of a successful run.
type Result struct {
	RunID      string
	LoadStats  loader.Stats
	Reviews    []loader.Review
	Counts     *features.CountTable
	Vocabulary *features.Vocabulary
	Entries    []features.Entry
	Matrix     *features.Matrix
	Metadata   *features.Metadata
	Partition  split.Partition
	Dataset    *dataset.Dataset
	Stages     []StageSummary
}

// Snapshot packages the result for export.
func (r *Result) Snapshot(at time.Time) *export.Snapshot {
	return &export.Snapshot{
		RunID:      r.RunID,
		CreatedAt:  at,
		Entries:    r.Entries,
		Vocabulary: r.Vocabulary,
		Matrix:     r.Matrix,
		Metadata:   r.Metadata,
		Partition:  r.Partition,
	}
}

// Runner executes the stages for one configuration. A Runner is not safe for
// concurrent use.
type Runner struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	exporter *export.Exporter
	runID    string
	now      func() time.Time
}

type Option func(*Runner)

// WithMetrics records stage and run metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithExporter exports the result once every stage has succeeded.
func WithExporter(e *export.Exporter) Option {
	return func(r *Runner) { r.exporter = e }
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every stage in order. Any error aborts the run before export.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "pipeline")
	ctx, root := tracing.Start(ctx, "pipeline", runID)

	log.Info("run started", "input", r.cfg.Input.Path, "seed", r.cfg.Cleaning.Seed)
	res := &Result{RunID: runID}
	err := r.run(ctx, res)
	root.End(err)
	root.Log(log)

	if r.metrics != nil {
		r.metrics.RunsTotal.WithLabelValues(Status(err)).Inc()
	}
	if err != nil {
		stage, _ := apperrors.Stage(err)
		log.Error("run failed", "stage", stage, "error", err)
		return nil, err
	}
	log.Info("run finished",
		"documents", len(res.Matrix.DocIDs()),
		"terms", res.Vocabulary.Len(),
		"train", len(res.Partition.Train),
		"test", len(res.Partition.Test),
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, res *Result) error {
	cfg := r.cfg
	stop, err := stopwords.Resolve(cfg.Text.Stopwords, cfg.Text.ExtraStopwords)
	if err != nil {
		return fmt.Errorf("%w: text.stopwords: %v", apperrors.ErrInvalidConfig, err)
	}

	err = r.stage(ctx, res, StageLoader, 0, func(ctx context.Context) (int, error) {
		reviews, stats, err := loader.Load(ctx, cfg.Input.Path, loader.Options{
			Delimiter:  []rune(cfg.Input.Delimiter)[0],
			MinABV:     cfg.Cleaning.MinABV,
			SampleSize: cfg.Cleaning.SampleSize,
			Seed:       cfg.Cleaning.Seed,
		})
		res.Reviews, res.LoadStats = reviews, stats
		return len(reviews), err
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, res, StageCount, len(res.Reviews), func(context.Context) (int, error) {
		docs := make([]tokenizer.Document, len(res.Reviews))
		for i, review := range res.Reviews {
			docs[i] = tokenizer.Document{ID: review.Index, Text: review.Text}
		}
		tok := tokenizer.New(cfg.Text.MinTokenLength)
		res.Counts = features.CountTokens(stop.Filter(tok.TokenizeAll(docs)))
		if res.Counts.Len() == 0 {
			return 0, apperrors.EmptyResult(StageCount, len(docs), "no tokens survive stopword removal")
		}
		return res.Counts.Len(), nil
	})
	if err != nil {
		return err
	}

	var restricted *features.CountTable
	err = r.stage(ctx, res, StageVocabulary, res.Counts.Len(), func(context.Context) (int, error) {
		vocab, err := features.SelectVocabulary(res.Counts, cfg.Vocabulary.MinDocFreq)
		if err != nil {
			return 0, err
		}
		res.Vocabulary = vocab
		restricted = features.Restrict(res.Counts, vocab)
		if r.metrics != nil {
			r.metrics.VocabularySize.Set(float64(vocab.Len()))
		}
		return restricted.Len(), nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, res, StageWeighting, restricted.Len(), func(context.Context) (int, error) {
		entries, err := features.Weight(restricted)
		res.Entries = entries
		return len(entries), err
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, res, StageMatrix, len(res.Entries), func(context.Context) (int, error) {
		rows := make([]features.MetaRow, len(res.Reviews))
		for i, review := range res.Reviews {
			rows[i] = features.MetaRow{Doc: review.Index, Target: review.ABV}
		}
		m, meta, err := features.BuildMatrix(res.Entries, res.Vocabulary, features.NewMetadata(rows))
		if err != nil {
			return 0, err
		}
		res.Matrix, res.Metadata = m, meta
		if r.metrics != nil {
			r.metrics.MatrixNonZero.Set(float64(m.NNZ()))
		}
		return len(m.DocIDs()), nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, res, StageSplit, res.Metadata.Len(), func(context.Context) (int, error) {
		p, err := split.Stratified(res.Metadata.Targets(), split.Options{
			TrainFraction: cfg.Split.TrainFraction,
			Strata:        cfg.Split.Strata,
			Seed:          cfg.SplitSeed(),
		})
		res.Partition = p
		return len(p.Train) + len(p.Test), err
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, res, StageDataset, len(res.Partition.Train)+len(res.Partition.Test), func(context.Context) (int, error) {
		ds, err := dataset.Assemble(res.Matrix, res.Metadata, res.Partition)
		if err != nil {
			return 0, err
		}
		res.Dataset = ds
		return len(ds.TrainIDs) + len(ds.TestIDs), nil
	})
	if err != nil {
		return err
	}

	if r.exporter == nil {
		return nil
	}
	docs := len(res.Matrix.DocIDs())
	return r.stage(ctx, res, StageExport, docs, func(ctx context.Context) (int, error) {
		if err := r.exporter.Export(ctx, res.Snapshot(r.now().UTC())); err != nil {
			return 0, err
		}
		return docs, nil
	})
}

// stage runs fn under a child span, after checking ctx, and records its
// counts and duration.
func (r *Runner) stage(ctx context.Context, res *Result, name string, in int, fn func(context.Context) (int, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("before stage %s: %w", name, err)
	}
	ctx, span := tracing.StartChild(ctx, name)
	start := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(start)
	span.Records(in, out)
	span.End(err)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return apperrors.Wrap(name, in, err)
	}

	res.Stages = append(res.Stages, StageSummary{Name: name, RecordsIn: in, RecordsOut: out, Duration: elapsed})
	if r.metrics != nil {
		r.metrics.ObserveStage(name, elapsed, in, out)
	}
	logger.FromContext(ctx).Info("stage complete",
		slog.String("stage", name),
		slog.Int("records_in", in),
		slog.Int("records_out", out),
		slog.Duration("duration", elapsed),
	)
	return nil
}

// Status labels err for the runs counter.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, apperrors.ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, apperrors.ErrDataFormat):
		return "data_format"
	case errors.Is(err, apperrors.ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, apperrors.ErrAlignment):
		return "alignment"
	case errors.Is(err, apperrors.ErrExport):
		return "export"
	default:
		return "internal"
	}
}
