package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})

	return NewSlog(slog.New(handler)), buf
}

func TestNewSlog(t *testing.T) {
	logger, _ := newBufferLogger(slog.LevelDebug)

	require.NotNil(t, logger)
	require.NotNil(t, logger.logger)
}

func TestNewSlogDefault(t *testing.T) {
	logger := NewSlogDefault()

	require.NotNil(t, logger)
	require.NotNil(t, logger.logger)
}

func TestSlogLogger_Levels(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)

	logger.Debug("solving counts", "dimensions", 3)
	logger.Info("partitions generated", "count", 20)
	logger.Warn("count clamped", "dimension", "frame")
	logger.Error("diff failed", "error", "boom")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "dimensions=3")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "count=20")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "dimension=frame")
	assert.Contains(t, out, "level=ERROR")
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestNewNop(t *testing.T) {
	logger := NewNop()

	require.NotPanics(t, func() {
		logger.Debug("x")
		logger.Info("x")
		logger.Warn("x")
		logger.Error("x")
	})
}
