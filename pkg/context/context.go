// Package context carries per-request values through a context.Context
package context

import "context"

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	UserIDKey    = ContextKey("X-User-Id")
)

func getString(ctx context.Context, key ContextKey) string {
	value, _ := ctx.Value(key).(string)
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the request id, or "" outside a request
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// SetUserID records the caller, used as the default merged_by of a merge
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	return getString(ctx, UserIDKey)
}
