package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var Log = slog.Default()

// ParseLevel maps a level name to a slog level. Unknown names are an error.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// Init initializes the global logger. Output goes to stderr so the chat
// REPL owns stdout; logFile, when set, receives a copy.
func Init(level string, logFile string) (io.Closer, error) {
	return InitWriter(os.Stderr, level, logFile)
}

// InitWriter is Init with an explicit console writer.
func InitWriter(console io.Writer, level string, logFile string) (io.Closer, error) {
	logLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
		closer = f
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Shorten time format
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String("time", a.Value.Time().Format("15:04:05"))
			}
			return a
		},
	})

	Log = slog.New(handler)
	slog.SetDefault(Log)

	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// With returns a child of the global logger tagged with component.
func With(component string) *slog.Logger {
	return Log.With("component", component)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
