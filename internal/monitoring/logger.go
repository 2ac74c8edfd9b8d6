// Package monitoring holds the diagnostic logger shared by the engine and
// its stores.
package monitoring

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// ForSample returns a logger that prefixes every line with the sample name,
// so interleaved output from concurrent samples stays attributable.
func ForSample(sample string) func(format string, v ...interface{}) {
	prefix := "[" + sample + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}

// FileLogger appends timestamped lines to a log file. It is safe for use by
// concurrent samples.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
}

// OpenFileLogger creates or appends to the log file at path.
func OpenFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("monitoring: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("monitoring: open log file: %w", err)
	}
	return &FileLogger{file: f}, nil
}

// Printf writes a single timestamped line.
func (l *FileLogger) Printf(format string, v ...interface{}) {
	if l == nil || l.file == nil {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, v...), "\n")
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "[%s] %s\n", time.Now().UTC().Format(time.RFC3339), line)
}

// Close releases the file handle.
func (l *FileLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
