package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func withObservedLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	original := log
	log = zap.New(core)
	t.Cleanup(func() { log = original })
	return recorded
}

func TestContextWithCorrelationID(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "test-id")
	assert.Equal(t, "test-id", CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestWithContextAddsCorrelationIDField(t *testing.T) {
	recorded := withObservedLogger(t)

	ctx := ContextWithCorrelationID(context.Background(), "context-id")
	WithContext(ctx).Info("test message")

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "context-id", entries[0].ContextMap()["correlation_id"])
}

func TestNamedAddsComponentField(t *testing.T) {
	recorded := withObservedLogger(t)

	Named("refresh.alerts").Warn("tick failed")

	entries := recorded.FilterField(zap.String("component", "refresh.alerts")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tick failed", entries[0].Message)
}
