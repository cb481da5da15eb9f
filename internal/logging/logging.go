// Package logging provides leveled, categorized debug logging for planmon.
// It wraps tea.LogToFile so the live view and the plain console share one
// sink, and is a no-op unless enabled via --debug or PLANMON_DEBUG.
package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Level is log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Category groups related log messages.
type Category string

const (
	CatDispatch Category = "dispatch" // command channel
	CatChannel  Category = "channel"  // event stream
	CatMonitor  Category = "monitor"  // supervisor lifecycle
	CatReport   Category = "report"   // summary artifact
	CatConfig   Category = "config"   // configuration loading
	CatUI       Category = "ui"       // rendering / live view
)

type logger struct {
	mu      sync.Mutex
	file    *os.File
	enabled bool
}

var std logger

// Init opens the log file and enables logging. It returns a cleanup func
// that closes the file. Calling any log function before Init is a no-op.
func Init(path string) (func(), error) {
	f, err := tea.LogToFile(path, "planmon")
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	std.mu.Lock()
	std.file = f
	std.enabled = true
	std.mu.Unlock()
	return func() {
		std.mu.Lock()
		std.enabled = false
		std.file = nil
		std.mu.Unlock()
		f.Close()
	}, nil
}

// Enabled reports whether logging has been initialized.
func Enabled() bool {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.enabled
}

func logf(level Level, cat Category, format string, args ...interface{}) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if !std.enabled || std.file == nil {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(std.file, "%s %-5s [%s] %s\n", ts, level, cat, fmt.Sprintf(format, args...))
}

// Debugf logs at debug level.
func Debugf(cat Category, format string, args ...interface{}) {
	logf(LevelDebug, cat, format, args...)
}

// Infof logs at info level.
func Infof(cat Category, format string, args ...interface{}) {
	logf(LevelInfo, cat, format, args...)
}

// Warnf logs at warn level.
func Warnf(cat Category, format string, args ...interface{}) {
	logf(LevelWarn, cat, format, args...)
}

// Errorf logs at error level.
func Errorf(cat Category, format string, args ...interface{}) {
	logf(LevelError, cat, format, args...)
}
