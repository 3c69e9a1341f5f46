package export

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/resilience"
	"golang.org/x/sync/errgroup"
)

// Sink persists a snapshot somewhere.
type Sink interface {
	Name() string
	Export(ctx context.Context, snap *Snapshot) error
}

// Exporter writes a snapshot to every sink concurrently. The first sink to
// fail cancels the others.
type Exporter struct {
	sinks   []Sink
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
}

// NewExporter builds an Exporter. m may be nil.
func NewExporter(m *metrics.Metrics, retry resilience.RetryConfig, sinks ...Sink) *Exporter {
	return &Exporter{sinks: sinks, retry: retry, metrics: m}
}

// Sinks returns the configured sink names.
func (e *Exporter) Sinks() []string {
	names := make([]string, len(e.sinks))
	for i, s := range e.sinks {
		names[i] = s.Name()
	}
	return names
}

func (e *Exporter) Export(ctx context.Context, snap *Snapshot) error {
	log := logger.FromContext(ctx).With("component", "export")
	records, _ := snap.Matrix.Dims()

	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range e.sinks {
		g.Go(func() error {
			start := time.Now()
			err := resilience.Retry(ctx, sink.Name(), e.retry, func(ctx context.Context) error {
				return sink.Export(ctx, snap)
			})
			elapsed := time.Since(start)
			if e.metrics != nil {
				e.metrics.ObserveExport(sink.Name(), elapsed, err)
			}
			if err != nil {
				log.Error("export failed", "sink", sink.Name(), "error", err)
				return apperrors.Export(sink.Name(), records, err)
			}
			log.Info("exported", "sink", sink.Name(), "documents", records, "duration", elapsed.Round(time.Millisecond))
			return nil
		})
	}
	return g.Wait()
}

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close() error
}

// CloseAll closes every sink that holds a connection, logging failures.
func CloseAll(sinks []Sink) {
	for _, s := range sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				slog.Warn("closing sink", "sink", s.Name(), "error", err)
			}
		}
	}
}
