package log

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *slog.Logger
	sink   *lumberjack.Logger
)

// Options controls where log records go.
type Options struct {
	Level slog.Level
	// File, when set, receives a copy of every record. The file is rotated by size.
	File string
	// Attrs are attached to every record, e.g. the run id.
	Attrs []any
}

// Init initializes the global logger.
func Init(opts Options) {
	Close()

	var w io.Writer = os.Stdout
	if opts.File != "" {
		sink = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, sink)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level})
	logger = slog.New(handler).With(opts.Attrs...)
}

// L returns the global logger. It returns a default logger if Init has not been called.
func L() *slog.Logger {
	if logger == nil {
		Init(Options{Level: slog.LevelInfo})
	}
	return logger
}

// Close flushes and closes the log file, if any.
func Close() {
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
}

// LevelFromString converts a string to a slog.Level.
func LevelFromString(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
