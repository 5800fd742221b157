package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("chow", "warn", &buf)

	log.Info("should be filtered")
	log.Warn("should appear")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "should appear", entry["msg"])
	assert.Equal(t, "chow", entry["service"])
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("chow", "bogus", &buf)

	log.Debug("filtered")
	assert.Zero(t, buf.Len())

	log.Info("kept")
	assert.NotZero(t, buf.Len())
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
}

func TestWithContext_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("chow", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "corr-2")
	ctx = WithUserID(ctx, "user-9")

	WithContext(ctx, base).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-2", entry["correlation_id"])
	assert.Equal(t, "user-9", entry["user_id"])
}

func TestFromContext_Fallback(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := NewWithWriter("chow", "info", &buf)
	ctx := NewContext(context.Background(), l)
	assert.Equal(t, l, FromContext(ctx))
}
