package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, expected := range testCases {
		assert.Equal(t, expected, ParseLevel(input), "input %q", input)
	}
}

func TestNew(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown", "repository", "o/r")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "repository=o/r")

	buf.Reset()
	New(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	buf.Reset()
	t.Setenv("LOG_LEVEL", "error")
	New(&buf, false).Warn("suppressed")
	assert.Empty(t, buf.String())
}

func TestMaskSensitive(t *testing.T) {
	assert.Equal(t, "<not set>", MaskSensitive(""))
	assert.Equal(t, "<set>", MaskSensitive("abcd"))
	assert.Equal(t, "ghp_...***", MaskSensitive("ghp_secret"))
}
