package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "analyze", "")
	_, err := uuid.Parse(root.TraceID)
	require.NoError(t, err)

	_, child := StartChildSpan(ctx, "importance")
	child.SetAttr("iterations", 7)
	child.End()
	root.End()

	require.Len(t, root.Children, 1)
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Same(t, root, SpanFromContext(ctx))

	var buf bytes.Buffer
	root.Log(slog.New(slog.NewTextHandler(&buf, nil)))
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "msg=span"))
	assert.Contains(t, out, "iterations=7")
}

func TestChildWithoutParent(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	assert.Empty(t, span.TraceID)
	assert.Nil(t, SpanFromContext(context.Background()))
}
