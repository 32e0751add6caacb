package relay

import "log/slog"

// Logger receives the relay's structured events as a message plus key-value
// pairs. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func defaultLogger() Logger {
	return slog.Default()
}

// scopedLogger returns a logger that adds args to every record.
// Loggers that cannot carry attributes get them prepended on each call.
func scopedLogger(l Logger, args ...any) Logger {
	if len(args) == 0 {
		return l
	}
	if sl, ok := l.(*slog.Logger); ok {
		return sl.With(args...)
	}
	return &prefixLogger{Logger: l, args: args}
}

type prefixLogger struct {
	Logger
	args []any
}

func (l *prefixLogger) with(args []any) []any {
	return append(append(make([]any, 0, len(l.args)+len(args)), l.args...), args...)
}

func (l *prefixLogger) Debug(msg string, args ...any) { l.Logger.Debug(msg, l.with(args)...) }
func (l *prefixLogger) Info(msg string, args ...any)  { l.Logger.Info(msg, l.with(args)...) }
func (l *prefixLogger) Warn(msg string, args ...any)  { l.Logger.Warn(msg, l.with(args)...) }
func (l *prefixLogger) Error(msg string, args ...any) { l.Logger.Error(msg, l.with(args)...) }
