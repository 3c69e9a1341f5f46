// Package tracing records a run as a tree of timed spans carried through the
// context: one root per pipeline run, one child per stage. The finished tree
// is written to slog.
package tracing

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed operation.
type Span struct {
	Name      string
	RunID     string
	StartTime time.Time
	Duration  time.Duration
	Err       error
	Children  []*Span

	mu    sync.Mutex
	attrs map[string]any
}

// Start opens a root span for runID and stores it in the returned context.
func Start(ctx context.Context, name, runID string) (context.Context, *Span) {
	span := &Span{
		Name:      name,
		RunID:     runID,
		StartTime: time.Now(),
		attrs:     make(map[string]any),
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChild opens a span under the one in ctx. Without a parent it behaves
// like a detached root.
func StartChild(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{
		Name:      name,
		StartTime: time.Now(),
		attrs:     make(map[string]any),
	}
	if parent := FromContext(ctx); parent != nil {
		child.RunID = parent.RunID
		parent.mu.Lock()
		parent.Children = append(parent.Children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

// FromContext returns the current span, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// End closes the span, recording err if the operation failed.
func (s *Span) End(err error) {
	s.mu.Lock()
	s.Duration = time.Since(s.StartTime)
	s.Err = err
	s.mu.Unlock()
}

// Records sets the stage's input and output record counts.
func (s *Span) Records(in, out int) {
	s.SetAttr("records_in", in)
	s.SetAttr("records_out", out)
}

func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs[key] = value
	s.mu.Unlock()
}

// Attr returns an attribute set on the span.
func (s *Span) Attr(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.attrs[key]
	return v, ok
}

// Log writes the span tree to logger, depth first.
func (s *Span) Log(logger *slog.Logger) {
	s.log(logger, 0)
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := []any{
		"trace_id", s.RunID,
		"span", s.Name,
		"duration_ms", s.Duration.Milliseconds(),
		"depth", depth,
	}
	keys := make([]string, 0, len(s.attrs))
	for k := range s.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, s.attrs[k])
	}
	if s.Err != nil {
		attrs = append(attrs, "error", s.Err.Error())
	}
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()

	logger.Info("span", attrs...)
	for _, child := range children {
		child.log(logger, depth+1)
	}
}
