package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		name         string
		logLevel     string
		messageLevel string
		shouldAppear bool
	}{
		{name: "info level blocks debug", logLevel: "info", messageLevel: "debug", shouldAppear: false},
		{name: "info level allows warn", logLevel: "info", messageLevel: "warn", shouldAppear: true},
		{name: "warn level blocks info", logLevel: "warn", messageLevel: "info", shouldAppear: false},
		{name: "trace level allows everything", logLevel: "trace", messageLevel: "trace", shouldAppear: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := NewConsoleLogger(buf, tt.logLevel)
			switch tt.messageLevel {
			case "trace":
				l.LogTrace("msg")
			case "debug":
				l.LogDebug("msg")
			case "info":
				l.LogInfo("msg")
			case "warn":
				l.LogWarn("msg")
			case "error":
				l.LogError("msg")
			}
			if tt.shouldAppear {
				assert.Contains(t, buf.String(), "msg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNormalizeLogLevel(t *testing.T) {
	assert.Equal(t, "info", normalizeLogLevel(""))
	assert.Equal(t, "info", normalizeLogLevel("bogus"))
	assert.Equal(t, "warn", normalizeLogLevel("WARN"))
}

func TestLogScanLifecycleHelpers(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewConsoleLogger(buf, "debug")

	l.LogScanStart("run-1", "/repo", 12, "security")
	l.LogFileSkipped("big.bin", "SkippedTooLarge")
	l.LogScanComplete(42, 7, 1200)
	l.LogCacheStats(8, 2)

	out := buf.String()
	assert.True(t, strings.Contains(out, "/repo"))
	assert.True(t, strings.Contains(out, "big.bin"))
	assert.True(t, strings.Contains(out, "42 files"))
	assert.True(t, strings.Contains(out, "8/10 hits"))
}

func TestConsoleLoggerNilWriterIsNoop(t *testing.T) {
	l := NewConsoleLogger(nil, "info")
	assert.NotPanics(t, func() { l.LogInfo("ignored") })
}
