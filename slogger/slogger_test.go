package slogger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
	}{
		{"debug level", "debug", LevelDebug},
		{"info level", "info", LevelInfo},
		{"warn level", "warn", LevelWarn},
		{"warning alias", "warning", LevelWarn},
		{"error level", "error", LevelError},
		{"uppercase", "DEBUG", LevelDebug},
		{"invalid level", "invalid", DefaultLogLevel},
		{"empty string", "", DefaultLogLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, LevelFromString(tc.input))
		})
	}
}

func TestDevNullLogger(t *testing.T) {
	logger := NewDevNullLogger()

	// These calls should not panic
	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")

	withLogger := logger.With("context", "value")
	require.NotNil(t, withLogger)
	require.IsType(t, &DevNullLogger{}, withLogger)
}

func TestSloggerWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelDebug)
	logger.Debug("squad scan complete", "squads", 2)
	logger.Warn("layer over budget", "layer", "recall")

	out := buf.String()
	require.Contains(t, out, "squad scan complete")
	require.Contains(t, out, "layer over budget")

	withLogger := logger.With("layer", "constitution")
	require.NotNil(t, withLogger)
	require.IsType(t, &Slogger{}, withLogger)
}

func TestSloggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, LevelWarn)
	logger.Debug("should be dropped")
	logger.Info("should be dropped too")
	require.Empty(t, buf.String())

	logger.Error("kept")
	require.Contains(t, buf.String(), "kept")
}

//nolint:staticcheck // SA1012: Intentionally passing nil context for testing
func TestContextFunctions(t *testing.T) {
	logger := NewDevNullLogger()

	ctx := WithLogger(nil, logger)
	require.NotNil(t, ctx)
	require.Equal(t, logger, Ctx(ctx))

	existingCtx := context.Background()
	newCtx := WithLogger(existingCtx, logger)
	require.Equal(t, logger, Ctx(newCtx))

	// Missing or nil context falls back to a real logger
	require.IsType(t, &Slogger{}, Ctx(nil))
	require.IsType(t, &Slogger{}, Ctx(context.Background()))
}

func TestDefaultLogger(t *testing.T) {
	require.NotNil(t, DefaultLogger)
	require.IsType(t, &DevNullLogger{}, DefaultLogger)
}
