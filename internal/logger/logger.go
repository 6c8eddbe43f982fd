// Package logger provides leveled logging to stderr and, optionally, to
// per-level files.
//
// Stdout carries the MCP protocol in server mode, so nothing here ever
// writes to it.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLevel accepts debug, info, warning (or warn) and error, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger provides leveled logging (debug/info/warning/error).
type Logger struct {
	level      Level
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      []*os.File
	mu         sync.Mutex
}

// New creates a Logger writing entries at or above level to out. When dir is
// non-empty it is created if needed, and info.log, warning.log and error.log
// inside it receive a copy of their level's entries. Debug entries only go
// to out.
func New(level Level, out io.Writer, dir string) (*Logger, error) {
	l := &Logger{level: level}

	infoW, warnW, errW := out, out, out
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		var err error
		if infoW, err = l.openLogFile(dir, "info.log", out); err != nil {
			return nil, err
		}
		if warnW, err = l.openLogFile(dir, "warning.log", out); err != nil {
			l.Close()
			return nil, err
		}
		if errW, err = l.openLogFile(dir, "error.log", out); err != nil {
			l.Close()
			return nil, err
		}
	}

	// Lmsgprefix puts the level tag next to the message, after the timestamp.
	flags := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lmsgprefix
	l.debugLog = log.New(out, "DEBUG   ", flags)
	l.infoLog = log.New(infoW, "INFO    ", flags)
	l.warningLog = log.New(warnW, "WARNING ", flags)
	l.errorLog = log.New(errW, "ERROR   ", flags)
	return l, nil
}

// Stderr returns a Logger writing to stderr only.
func Stderr(level Level) *Logger {
	l, _ := New(level, os.Stderr, "")
	return l
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	l, _ := New(LevelError+1, io.Discard, "")
	return l
}

func (l *Logger) openLogFile(dir, name string, out io.Writer) (io.Writer, error) {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", name, err)
	}
	l.files = append(l.files, f)
	return io.MultiWriter(out, f), nil
}

// Level returns the minimum level that is written.
func (l *Logger) Level() Level {
	return l.level
}

// DebugEnabled reports whether Debug entries are written.
func (l *Logger) DebugEnabled() bool {
	return l.level <= LevelDebug
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...any) {
	l.write(LevelDebug, l.debugLog, format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...any) {
	l.write(LevelInfo, l.infoLog, format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...any) {
	l.write(LevelWarning, l.warningLog, format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...any) {
	l.write(LevelError, l.errorLog, format, v...)
}

func (l *Logger) write(level Level, lg *log.Logger, format string, v ...any) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	lg.Printf(format, v...)
}

// Close closes any log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for _, f := range l.files {
		errs = append(errs, f.Close())
	}
	l.files = nil
	return errors.Join(errs...)
}
