package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level   slog.Level
	File    string
	Service string
}

// New builds the process logger. When a log file is configured the JSON
// stream goes to stdout and to a size-rotated file.
func New(opts Options) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to create log directory", "path", opts.File, "error", err)
		} else {
			rotator := &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    5,
				MaxBackups: 3,
				MaxAge:     30,
				Compress:   true,
			}
			out = io.MultiWriter(os.Stdout, rotator)
			closer = rotator
		}
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})
	if opts.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", opts.Service)})
	}

	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
