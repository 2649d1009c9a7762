package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestZapLoggerWritesThroughAdapter(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(New(InfoLevel, &buf))

	zl.Info("from zap",
		zap.String("search_id", "search_7"),
		zap.Int("workers", 3),
		zap.Float64("best_cost", 1.25),
		zap.Bool("optimal", true),
	)
	zl.Debug("filtered out")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "from zap", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "search_7", entry["search_id"])
	assert.Equal(t, float64(3), entry["workers"])
	assert.Equal(t, 1.25, entry["best_cost"])
	assert.Equal(t, true, entry["optimal"])
}

func TestZapAdapterWithFields(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(New(InfoLevel, &buf)).With(zap.String("component", "engine"))

	zl.Warn("warned")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "engine", entries[0]["component"])
	assert.Equal(t, "WARN", entries[0]["level"])
}

func TestZapAdapterErrorField(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZapLogger(New(InfoLevel, &buf))

	zl.Error("failed", zap.Error(assert.AnError))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, assert.AnError.Error(), entries[0]["error"])
}
