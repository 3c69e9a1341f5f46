package tracing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := Start(context.Background(), "pipeline", "run-1")
	stageCtx, tok := StartChild(ctx, "tokenizer")
	tok.Records(10, 250)
	tok.End(nil)
	_, inner := StartChild(stageCtx, "nested")
	inner.End(errors.New("bad"))
	root.End(nil)

	require.Len(t, root.Children, 1)
	assert.Equal(t, "run-1", tok.RunID)
	assert.Equal(t, "run-1", inner.RunID)
	v, ok := tok.Attr("records_out")
	require.True(t, ok)
	assert.Equal(t, 250, v)
	assert.Same(t, tok, FromContext(stageCtx))

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, nil)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "span=tokenizer")
	assert.Contains(t, lines[1], "records_in=10")
	assert.Contains(t, lines[2], "depth=2")
	assert.Contains(t, lines[2], "error=bad")
}

func TestStartChild_NoParent(t *testing.T) {
	_, span := StartChild(context.Background(), "orphan")
	assert.Empty(t, span.RunID)
	assert.Nil(t, FromContext(context.Background()))
}
