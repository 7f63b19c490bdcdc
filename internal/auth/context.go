package auth

import "context"

// Identity is the verified caller identity for one request. It is
// held only in the request context, never persisted.
type Identity struct {
	Subject string
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityContextKey is the context key for storing Identity.
const identityContextKey contextKey = "identity"

// ContextWithIdentity adds the verified identity to the context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the verified identity from the
// context. Returns nil if not present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return id
}

// SubjectFromContext is a convenience function to get the owner
// identity from context. Returns empty string if not authenticated.
func SubjectFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return ""
	}
	return id.Subject
}
