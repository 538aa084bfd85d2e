package slogx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equalf(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", "symbol", "000001.SZ")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "symbol=000001.SZ")
}
