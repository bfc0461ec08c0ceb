package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("production", "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = New("development", "loud")
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "rid-1")
	assert.Equal(t, "rid-1", RequestID(ctx))
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestLogger_CarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := WithRequestID(context.Background(), "rid-42")
	NewLogger(ctx).LogError("ensure_chart", errors.New("boom"))
	NewLogger(context.Background()).LogInfof("search", "query=%s", "Lon")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "rid-42", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "ensure_chart", entries[0].ContextMap()["operation"])
	assert.Equal(t, "unknown", entries[1].ContextMap()["request_id"])
	assert.Equal(t, "query=Lon", entries[1].Message)
}
