// Package correlation carries the request correlation identifier through
// contexts so that logs, traces and published events can be joined.
package correlation

import (
	"context"
	"strings"
)

// Header is the request and response header holding the identifier.
const Header = "X-Correlation-ID"

type contextKey struct{}

// WithID returns a copy of ctx carrying id. Blank ids leave ctx untouched.
func WithID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identifier stored on ctx, or an empty string.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
