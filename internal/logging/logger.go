// Package logging defines the structured logger used across the service.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs, e.g.:
//
//	log.Info(ctx, "user signed up", "user_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// New builds the process logger. Production gets JSON lines, everything else
// gets the human-readable text handler at debug level. Both redact secrets.
func New(w io.Writer, environment string) Logger {
	if w == nil {
		w = os.Stdout
	}
	if environment == "production" {
		return FromSlog(slog.New(slog.NewJSONHandler(w, HandlerOptions(slog.LevelInfo))))
	}
	return FromSlog(slog.New(slog.NewTextHandler(w, HandlerOptions(slog.LevelDebug))))
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return FromSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
