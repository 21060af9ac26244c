package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
)

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	stored := logger.FromZap(zap.New(core))

	ctx := logger.WithContext(context.Background(), stored)
	logger.FromContext(ctx, logger.NewNop()).Info("from request")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "from request", logs.All()[0].Message)
}

func TestFromContext_UsesFallback(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	fallback := logger.FromZap(zap.New(core))

	logger.FromContext(context.Background(), fallback).Warn("no logger on ctx")

	assert.Equal(t, 1, logs.FilterMessage("no logger on ctx").Len())
}

func TestFromContext_NilFallbackIsSafe(t *testing.T) {
	t.Parallel()

	l := logger.FromContext(context.Background(), nil)
	require.NotNil(t, l)
	l.Error("discarded")
}

func TestWith_AttachesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := logger.FromZap(zap.New(core)).With(logger.String("component", "queue"))

	l.Debug("tick", logger.Int("depth", 3))

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "queue", ctx["component"])
	assert.EqualValues(t, 3, ctx["depth"])
}

func TestNew_DefaultsToInfo(t *testing.T) {
	t.Parallel()

	l, err := logger.New(logger.Config{Level: "bogus", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	require.NotNil(t, l)
}
