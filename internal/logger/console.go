// Package logger provides scan-lifecycle logging for Code-Guardian: a
// thread-safe console logger with level filtering and optional colour, and
// a file logger that mirrors each run's log to disk. Adapted from the
// teacher's internal/logger/console.go ConsoleLogger shape, trimmed of its
// wave/task/QC-specific methods and retargeted to scan start/skip/complete
// events.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs to a writer with "[HH:MM:SS] [LEVEL] message" framing,
// thread-safe and level-filtered. Colour is enabled automatically when the
// writer is a TTY.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger builds a ConsoleLogger writing to writer, filtering to
// messages at or above logLevel (trace/debug/info/warn/error; defaults to
// info on an empty or unrecognised value).
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout {
		return isatty.IsTerminal(os.Stdout.Fd())
	}
	if w == os.Stderr {
		return isatty.IsTerminal(os.Stderr.Fd())
	}
	return false
}

func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	default:
		return "info"
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }
func (cl *ConsoleLogger) LogInfo(message string)  { cl.logWithLevel("INFO", message) }
func (cl *ConsoleLogger) LogWarn(message string)  { cl.logWithLevel("WARN", message) }
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

func (cl *ConsoleLogger) Infof(format string, args ...interface{})  { cl.LogInfo(fmt.Sprintf(format, args...)) }
func (cl *ConsoleLogger) Warnf(format string, args ...interface{})  { cl.LogWarn(fmt.Sprintf(format, args...)) }
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) { cl.LogError(fmt.Sprintf(format, args...)) }
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) { cl.LogDebug(fmt.Sprintf(format, args...)) }

func (cl *ConsoleLogger) logWithLevel(level, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := time.Now().Format("15:04:05")
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	_, _ = cl.writer.Write([]byte(formatted))
}

var levelColor = map[string]*color.Color{
	"TRACE": color.New(color.FgWhite),
	"DEBUG": color.New(color.FgCyan),
	"INFO":  color.New(color.FgGreen),
	"WARN":  color.New(color.FgYellow),
	"ERROR": color.New(color.FgRed, color.Bold),
}

func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	c, ok := levelColor[level]
	if !ok {
		c = color.New(color.FgWhite)
	}
	return fmt.Sprintf("[%s] %s %s\n", ts, c.Sprintf("[%s]", level), message)
}

// Scan-lifecycle helpers, the domain events §4.10/§7's CLI shell reports.

// LogScanStart announces the start of a scan over root with the named
// detector count and profile (profile may be empty). runID is a
// per-invocation correlation ID so parallel scan log lines (including
// those mirrored to a FileLogger) can be attributed to one run.
func (cl *ConsoleLogger) LogScanStart(runID, root string, detectorCount int, profile string) {
	if profile != "" {
		cl.Infof("[%s] scanning %s with %d detectors (profile: %s)", runID, root, detectorCount, profile)
		return
	}
	cl.Infof("[%s] scanning %s with %d detectors", runID, root, detectorCount)
}

// LogFileSkipped reports a traversal diagnostic (permission denied, too
// large, symlink escape, or invalid encoding).
func (cl *ConsoleLogger) LogFileSkipped(path, reason string) {
	cl.Warnf("skipped %s: %s", path, reason)
}

// LogScanComplete reports the terminal summary of a completed scan.
func (cl *ConsoleLogger) LogScanComplete(filesScanned int, matchesTotal int64, durationMS int64) {
	cl.Infof("scanned %d files, %d matches in %dms", filesScanned, matchesTotal, durationMS)
}

// LogCacheStats reports result-cache effectiveness for the completed scan.
func (cl *ConsoleLogger) LogCacheStats(hits, misses int64) {
	total := hits + misses
	if total == 0 {
		cl.Debugf("cache: no lookups")
		return
	}
	cl.Debugf("cache: %d/%d hits (%.0f%%)", hits, total, 100*float64(hits)/float64(total))
}
