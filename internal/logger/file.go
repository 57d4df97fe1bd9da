package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger mirrors scan-lifecycle log lines to a timestamped run log
// under logDir, adapted from the teacher's internal/logger/file.go
// (trimmed of its per-task log file and latest.log symlink machinery,
// which had no Code-Guardian equivalent — a scan has no sub-tasks).
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	logPath string
}

// NewFileLogger creates logDir if necessary and opens a new timestamped
// run log file within it.
func NewFileLogger(logDir string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	name := fmt.Sprintf("scan-%s.log", time.Now().Format("20060102-150405"))
	path := filepath.Join(logDir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &FileLogger{file: f, logPath: path}, nil
}

// Path returns the run log's filesystem path.
func (fl *FileLogger) Path() string { return fl.logPath }

// Write implements io.Writer so a FileLogger can back a ConsoleLogger
// directly, or be combined with one via io.MultiWriter.
func (fl *FileLogger) Write(p []byte) (int, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.file.Write(p)
}

// Close closes the underlying run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.file.Close()
}
