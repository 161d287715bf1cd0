// Package logger provides structured logging for the animation server.
// Every tick, timer failure and viewer connection should be traceable through this.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Level is the minimum severity that gets written.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

const (
	ansiReset  = "\x1b[0m"
	ansiGray   = "\x1b[90m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

// Logger provides structured logging with context.
type Logger struct {
	level       Level
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a logger on stdout/stderr at info level.
func NewLogger() *Logger {
	return New(os.Stdout, os.Stderr, LevelInfo)
}

// New creates a logger writing info and below to out and errors to errOut.
// Prefixes are coloured when the destination is a terminal.
func New(out, errOut io.Writer, level Level) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		level:       level,
		debugLogger: log.New(out, prefix("DEBUG", ansiGray, out), flags),
		infoLogger:  log.New(out, prefix("INFO", ansiCyan, out), flags),
		warnLogger:  log.New(out, prefix("WARN", ansiYellow, out), flags),
		errorLogger: log.New(errOut, prefix("ERROR", ansiRed, errOut), flags),
	}
}

func prefix(name, color string, w io.Writer) string {
	p := "[SINEWAVE-" + name + "] "
	if isTerminal(w) {
		return color + p + ansiReset
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Debug logs verbose loop tracing.
func (l *Logger) Debug(msg string) {
	if l.level <= LevelDebug {
		l.debugLogger.Output(2, msg)
	}
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	if l.level <= LevelInfo {
		l.infoLogger.Output(2, msg)
	}
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	if l.level <= LevelWarn {
		l.warnLogger.Output(2, msg)
	}
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Output(2, msg)
}

// Event logs a loop event at debug level.
func (l *Logger) Event(eventType string, actorID string, details string) {
	if l.level <= LevelDebug {
		l.debugLogger.Output(2, fmt.Sprintf("[EVENT:%s] Actor:%s | %s", eventType, actorID, details))
	}
}
