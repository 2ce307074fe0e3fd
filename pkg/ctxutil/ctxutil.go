package ctxutil

import (
	"context"
	"strings"
)

type ctxKey string

const (
	domainKey    ctxKey = "domain"
	requestIDKey ctxKey = "request_id"
)

// WithDomain stores the hostname of the page a message came from.
func WithDomain(ctx context.Context, domain string) context.Context {
	return context.WithValue(ctx, domainKey, strings.ToLower(domain))
}

// DomainFromCtx extracts the sender domain from the context.
// Returns "" and false if the value is missing or empty.
func DomainFromCtx(ctx context.Context) (string, bool) {
	d, ok := ctx.Value(domainKey).(string)
	if !ok || d == "" {
		return "", false
	}
	return d, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
