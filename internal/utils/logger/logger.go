package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type Logger struct {
	serviceName string
	out         io.Writer
	level       Level
	mu          *sync.Mutex
}

var (
	// INFO_EMOJI Emoji constants
	INFO_EMOJI    = "ℹ️ "
	SUCCESS_EMOJI = "✅ "
	WARN_EMOJI    = "⚠️ "
	ERROR_EMOJI   = "❌ "
	DEBUG_EMOJI   = "🔍 "
)

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	debugColor   = color.New(color.FgMagenta)
)

func New(serviceName string) *Logger {
	return &Logger{
		serviceName: serviceName,
		out:         os.Stdout,
		level:       levelFromEnv(),
		mu:          &sync.Mutex{},
	}
}

// WithOutput returns a copy of the logger writing to w.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	cp := *l
	cp.out = w
	cp.mu = &sync.Mutex{}
	return &cp
}

// Named returns a logger for a sub-component sharing the same output.
func (l *Logger) Named(name string) *Logger {
	cp := *l
	cp.serviceName = l.serviceName + "." + name
	return &cp
}

func levelFromEnv() Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) formatMessage(level, emoji, msg string) string {
	_, file, line, _ := runtime.Caller(3)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fileName := filepath.Base(file)

	return fmt.Sprintf("%s | %s | %s | %s:%d | %s | %s",
		emoji,
		timestamp,
		level,
		fileName,
		line,
		l.serviceName,
		msg,
	)
}

func (l *Logger) print(min Level, c *color.Color, level, emoji, msg string) {
	if l.level > min {
		return
	}
	formatted := l.formatMessage(level, emoji, msg)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = c.Fprintln(l.out, formatted)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.print(LevelInfo, infoColor, "INFO", INFO_EMOJI, fmt.Sprintf(msg, args...))
}

func (l *Logger) Success(msg string, args ...interface{}) {
	l.print(LevelInfo, successColor, "SUCCESS", SUCCESS_EMOJI, fmt.Sprintf(msg, args...))
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.print(LevelWarn, warnColor, "WARN", WARN_EMOJI, fmt.Sprintf(msg, args...))
}

// Error logs msg with err appended to args and returns err wrapped with msg.
func (l *Logger) Error(msg string, err error, args ...interface{}) error {
	args = append(args, err)
	l.print(LevelError, errorColor, "ERROR", ERROR_EMOJI, fmt.Sprintf(msg+": %v", args...))
	return fmt.Errorf("%s: %w", msg, err)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.print(LevelDebug, debugColor, "DEBUG", DEBUG_EMOJI, fmt.Sprintf(msg, args...))
}
