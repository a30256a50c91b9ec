package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		env   string
		want  slog.Level
	}{
		{"debug", "production", slog.LevelDebug},
		{"INFO", "development", slog.LevelInfo},
		{"warning", "", slog.LevelWarn},
		{"error", "", slog.LevelError},
		{"", "production", slog.LevelInfo},
		{"", "development", slog.LevelDebug},
		{"verbose", "production", slog.LevelInfo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.level+"/"+tt.env, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLevel(tt.level, tt.env))
		})
	}
}

func TestWithRequestID(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "test-request-123")

	assert.Equal(t, "test-request-123", ctx.Value(requestIDKey))
}

func TestWithGeneration(t *testing.T) {
	t.Parallel()

	ctx := WithGeneration(context.Background(), 7)

	assert.Equal(t, uint64(7), ctx.Value(generationKey))
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setupCtx func() context.Context
	}{
		{
			name:     "empty context",
			setupCtx: context.Background,
		},
		{
			name: "with request ID",
			setupCtx: func() context.Context {
				return WithRequestID(context.Background(), "req-123")
			},
		},
		{
			name: "with both values",
			setupCtx: func() context.Context {
				ctx := WithRequestID(context.Background(), "req-123")
				return WithGeneration(ctx, 3)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.NotNil(t, FromContext(tt.setupCtx()))
		})
	}
}

func TestEnrich(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithGeneration(WithRequestID(context.Background(), "req-9"), 4)
	Enrich(ctx, base).Info("fetched")

	assert.Contains(t, buf.String(), "request_id=req-9")
	assert.Contains(t, buf.String(), "generation=4")

	buf.Reset()
	Enrich(context.Background(), base).Info("plain")
	assert.NotContains(t, buf.String(), "request_id")
	assert.NotContains(t, buf.String(), "generation")
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New("production", ""))
	assert.NotNil(t, New("development", "warn"))
}
