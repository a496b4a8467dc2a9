// Package logging provides structured logging for both CLI and GUI modes.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog with mode-specific behavior.
type Logger struct {
	zlog   zerolog.Logger
	mode   string    // "cli" or "gui"
	output io.Writer // current output writer
}

// NewLogger creates a logger for the specified mode writing to stderr.
// Stdout carries only command results.
func NewLogger(mode string) *Logger {
	return newLogger(mode, consoleWriter(os.Stderr))
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger("cli")
}

// NewNopLogger returns a logger that discards everything. Used by tests and
// by library callers that do not care about logs.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop(), mode: "nop", output: io.Discard}
}

// NewWithWriter creates a logger writing console-formatted lines to w.
func NewWithWriter(mode string, w io.Writer) *Logger {
	return newLogger(mode, consoleWriter(w))
}

func newLogger(mode string, output io.Writer) *Logger {
	return &Logger{
		zlog:   zerolog.New(output).With().Timestamp().Logger(),
		mode:   mode,
		output: output,
	}
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context with additional fields.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Child returns a Logger carrying the extra fields of ctx.
func (l *Logger) Child(ctx zerolog.Context) *Logger {
	return &Logger{zlog: ctx.Logger(), mode: l.mode, output: l.output}
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

var (
	fileLogger   *lumberjack.Logger
	fileLoggerMu sync.Mutex
)

// EnableFileOutput tees l's output into a rotating log file in dir.
// Calling it more than once reuses the same file.
func (l *Logger) EnableFileOutput(dir, name string) (string, error) {
	fileLoggerMu.Lock()
	defer fileLoggerMu.Unlock()

	if fileLogger == nil {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", fmt.Errorf("failed to create log directory: %w", err)
		}
		fileLogger = &lumberjack.Logger{
			Filename:   filepath.Join(dir, name),
			MaxSize:    10, // MB per file
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	fileOut := zerolog.ConsoleWriter{Out: fileLogger, TimeFormat: "2006-01-02 15:04:05", NoColor: true}
	l.output = zerolog.MultiLevelWriter(l.output, fileOut)
	l.zlog = zerolog.New(l.output).With().Timestamp().Logger()
	return fileLogger.Filename, nil
}

// CloseFileOutput flushes and closes the rotating log file, if open.
func CloseFileOutput() error {
	fileLoggerMu.Lock()
	defer fileLoggerMu.Unlock()
	if fileLogger == nil {
		return nil
	}
	err := fileLogger.Close()
	fileLogger = nil
	return err
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
