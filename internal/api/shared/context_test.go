package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetTraceID(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)

	assert.Len(t, traceID, TraceIDLength*2, "trace ID should be 32 hex characters")

	// Each call produces a distinct ID.
	other := GetTraceID(SetTraceID(context.Background()))
	assert.NotEqual(t, traceID, other)
}

func TestGetTraceIDMissing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", GetTraceID(context.Background()))
}
