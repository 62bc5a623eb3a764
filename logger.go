package socket

import "log/slog"

// Logger is the interface for structured logging.
// It is designed to be compatible with *slog.Logger from the standard library.
// Applications can provide their own implementation or use the default slog logger.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// defaultLogger returns the default slog logger from the standard library.
func defaultLogger() Logger {
	return slog.Default()
}

// errText is the log form of err, without the stack trace that
// github.com/pkg/errors prints under %+v.
func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// withAttrs returns a Logger that appends args to every record.
// Loggers that are *slog.Logger use With directly.
func withAttrs(l Logger, args ...any) Logger {
	if sl, ok := l.(*slog.Logger); ok {
		return sl.With(args...)
	}
	return &attrLogger{l: l, args: args}
}

type attrLogger struct {
	l    Logger
	args []any
}

func (a *attrLogger) join(args []any) []any {
	out := make([]any, 0, len(a.args)+len(args))
	out = append(out, a.args...)
	return append(out, args...)
}

func (a *attrLogger) Debug(msg string, args ...any) { a.l.Debug(msg, a.join(args)...) }
func (a *attrLogger) Info(msg string, args ...any)  { a.l.Info(msg, a.join(args)...) }
func (a *attrLogger) Warn(msg string, args ...any)  { a.l.Warn(msg, a.join(args)...) }
func (a *attrLogger) Error(msg string, args ...any) { a.l.Error(msg, a.join(args)...) }
