package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextCartKey  ctxKey = "cartID"
	ContextTraceKey ctxKey = "traceID"
)

// CartIDFromContext returns the cart id placed by the shopper middleware, or 0.
func CartIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if cartID, ok := ctx.Value(ContextCartKey).(int64); ok {
		return cartID
	}
	return 0
}

func ContextWithCartID(ctx context.Context, cartID int64) context.Context {
	return context.WithValue(ctx, ContextCartKey, cartID)
}

func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ContextTraceKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(ContextTraceKey).(string)
	return traceID
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
