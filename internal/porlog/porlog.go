// Package porlog is the structured-logging facade the heartbeat engine
// logs through. It exists so the engine never imports log/slog directly:
// a caller can substitute a test double, route records into an existing
// pipeline, or (via KeyMaterial) guarantee that the PRF and envelope keys
// passing through encode, challenge generation, and verification never
// reach a log record in the clear.
package porlog

import (
	"context"
	"log/slog"
)

const redactedPlaceholder = "[redacted]"

// Logger is the logging surface the heartbeat engine calls during encode,
// challenge generation, proving, and verification: four leveled,
// context-first methods plus With for scoping a sub-logger to one
// ceremony step. Callers needing a custom redaction policy or a test
// double only need to satisfy this, not all of slog.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New binds a Logger to logger, falling back to slog.Default() when
// logger is nil. A CLI binary wiring its own *slog.Logger into
// WithLogger wants this; a library constructor with no caller-supplied
// logger wants Discard instead, so it doesn't write to the process-wide
// default uninvited.
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

// Discard returns a Logger that drops every record. This is what New
// (the heartbeat constructor) binds to until a caller supplies
// WithLogger explicitly.
func Discard() Logger {
	return discard{}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

type discard struct{}

func (discard) Debug(context.Context, string, ...any) {}
func (discard) Info(context.Context, string, ...any)  {}
func (discard) Warn(context.Context, string, ...any)  {}
func (discard) Error(context.Context, string, ...any) {}
func (discard) With(...any) Logger                    { return discard{} }

// KeyMaterial takes the actual secret — k_enc, k_mac, k_f, or k_alpha —
// and returns a log attribute that never carries it: only field and byte
// length reach the record, everything else is replaced with a fixed
// placeholder. Taking the real key as the argument, instead of asking the
// call site to remember to redact it itself, closes the gap a generic
// "redact this field name" helper leaves open: there is no way to call
// KeyMaterial and have the bytes end up in the log by mistake.
func KeyMaterial(field string, key []byte) slog.Attr {
	return slog.Group(field,
		slog.Int("len", len(key)),
		slog.String("value", redactedPlaceholder),
	)
}
