package auth

import (
	"context"
	"errors"
	"strings"
)

const bearerPrefix = "Bearer "

// Authenticate validates an Authorization header value and returns the caller.
// Configuration problems surface as ErrMissingSecret rather than an AuthError.
func (t *TokenManager) Authenticate(header string) (Identity, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return Identity{}, &AuthError{Kind: KindMissingOrMalformed}
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return Identity{}, &AuthError{Kind: KindMissingOrMalformed}
	}
	identity, err := t.Parse(raw)
	if err != nil {
		if errors.Is(err, ErrMissingSecret) {
			return Identity{}, err
		}
		return Identity{}, &AuthError{Kind: KindInvalidToken, Reason: err}
	}
	return identity, nil
}

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated caller.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the caller stored by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
