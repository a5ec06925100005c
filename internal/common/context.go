package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID  contextKey = "request_id"
	ContextKeySyllabusID contextKey = "syllabus_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

func WithSyllabusID(ctx context.Context, syllabusID string) context.Context {
	return context.WithValue(ctx, ContextKeySyllabusID, syllabusID)
}

func SyllabusIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeySyllabusID).(string); ok {
		return id
	}
	return ""
}

// LoggerWith decorates l with whatever request/syllabus IDs ctx carries.
func LoggerWith(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		l = l.With("request_id", id)
	}
	if id := SyllabusIDFromContext(ctx); id != "" {
		l = l.With("syllabus_id", id)
	}
	return l
}
