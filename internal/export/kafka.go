package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/kafka"
)

const kafkaBatch = 100

// Publisher is the subset of the Kafka producer the sink needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// KafkaSink publishes one DocumentRow event per matrix row, keyed by
// document ID, then a single Summary event once every row is acknowledged.
type KafkaSink struct {
	rows     Publisher
	complete Publisher
}

func NewKafkaSink(rows, complete Publisher) *KafkaSink {
	return &KafkaSink{rows: rows, complete: complete}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Close() error {
	var first error
	for _, p := range []Publisher{s.rows, s.complete} {
		if c, ok := p.(Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (s *KafkaSink) Export(ctx context.Context, snap *Snapshot) error {
	rows := snap.Rows()
	for start := 0; start < len(rows); start += kafkaBatch {
		end := min(start+kafkaBatch, len(rows))
		events := make([]kafka.Event, 0, end-start)
		for _, row := range rows[start:end] {
			events = append(events, kafka.Event{Key: strconv.Itoa(row.Doc), Value: row})
		}
		if err := s.rows.PublishBatch(ctx, events); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start, end, err)
		}
	}
	return s.complete.PublishBatch(ctx, []kafka.Event{{Key: snap.RunID, Value: snap.Summary()}})
}
