package session

import (
	"context"

	"github.com/fictlabs/fict/internal/storage"
)

type contextKey struct{}

// WithSession stores the validated session in the context.
func WithSession(ctx context.Context, s storage.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext retrieves the validated session, if any.
func FromContext(ctx context.Context) (storage.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(storage.Session)
	return s, ok
}
