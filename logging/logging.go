// Package logging builds the process logger: one slog handler for stderr and
// one for a log file, each filtering at its own level.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LevelTrace is more verbose than slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel parses error, warn, info, debug or trace, ignoring case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return 0, errors.Errorf("unknown log level %q", s)
	}
}

// Options configures New.
type Options struct {
	StderrLevel slog.Level
	FileLevel   slog.Level
	// FilePath is the log file, appended to. Empty disables file logging.
	FilePath string
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// New returns a logger writing to stderr and, if configured, to a file.
// The returned func closes the file.
//
// A log file that cannot be opened is reported on stderr and skipped:
// the process keeps logging to stderr only.
func New(opts Options) (*slog.Logger, func() error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level:       opts.StderrLevel,
			ReplaceAttr: replaceLevel,
		}),
	}
	closer := func() error { return nil }

	if opts.FilePath != "" {
		file, err := openFile(opts.FilePath)
		if err != nil {
			fmt.Fprintf(stderr, "logging to %s disabled: %v\n", opts.FilePath, err)
		} else {
			handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{
				Level:       opts.FileLevel,
				ReplaceAttr: replaceLevel,
			}))
			closer = file.Close
		}
	}

	return slog.New(fanout(handlers)), closer
}

func openFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	return file, nil
}

// replaceLevel prints LevelTrace as TRACE instead of DEBUG-4.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
