package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

func init() {
	defaultLogger = New(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	slog.SetDefault(defaultLogger)
}

// New builds a logger: JSON in production, text otherwise.
func New(env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level, env)}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unset levels default to
// info in production and debug elsewhere.
func ParseLevel(level, env string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if env == "production" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// Setup replaces the default logger and returns it.
func Setup(env, level string) *slog.Logger {
	defaultLogger = New(env, level)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

// Context keys
type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	generationKey contextKey = "generation"
)

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithGeneration tags the context with the catalog fetch generation it serves.
func WithGeneration(ctx context.Context, generation uint64) context.Context {
	return context.WithValue(ctx, generationKey, generation)
}

// FromContext returns the default logger with context values attached.
func FromContext(ctx context.Context) *slog.Logger {
	return Enrich(ctx, defaultLogger)
}

// Enrich attaches the request id and fetch generation carried by ctx to l.
func Enrich(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l == nil {
		l = defaultLogger
	}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		l = l.With("request_id", requestID)
	}

	if generation, ok := ctx.Value(generationKey).(uint64); ok && generation != 0 {
		l = l.With("generation", generation)
	}

	return l
}
