package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel(" debug "))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLogger_LevelFilteringAndPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn).With("extraction")

	logger.Info("hidden %d", 1)
	logger.Warn("mask %s skipped", "amygdala")

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.Contains(t, out, "[WARN] [extraction] mask amygdala skipped")

	buf.Reset()
	logger.With("cache").Error("boom")
	assert.Contains(t, buf.String(), "[extraction/cache] boom")
}
