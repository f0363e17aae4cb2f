// Package logging builds the process logger: JSON lines on stdout, teed
// into a size-rotated file when one is configured.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and optional file sink.
type Options struct {
	Level     string // debug, info, warn, error
	File      string
	MaxSizeMB int
}

// New returns a JSON logger and a close function for the file sink.
func New(opts Options) (*slog.Logger, func() error) {
	return NewWriter(os.Stdout, opts)
}

// NewWriter is New with an explicit console writer.
func NewWriter(console io.Writer, opts Options) (*slog.Logger, func() error) {
	w := console
	closeFn := func() error { return nil }
	if opts.File != "" {
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: 3,
			Compress:   true,
		}
		w = io.MultiWriter(console, rot)
		closeFn = rot.Close
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(h), closeFn
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
