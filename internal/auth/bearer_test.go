package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/demandhub-be/internal/models"
)

func TestAuthenticate(t *testing.T) {
	tm := NewTokenManager(testSecret, testIssuer, time.Hour)
	token, err := tm.Generate(testAccount())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		kind   AuthErrorKind
	}{
		{name: "empty", header: "", kind: KindMissingOrMalformed},
		{name: "no scheme", header: token, kind: KindMissingOrMalformed},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", kind: KindMissingOrMalformed},
		{name: "lowercase scheme", header: "bearer " + token, kind: KindMissingOrMalformed},
		{name: "bearer without token", header: "Bearer ", kind: KindMissingOrMalformed},
		{name: "garbage token", header: "Bearer not-a-jwt", kind: KindInvalidToken},
		{name: "truncated token", header: "Bearer " + token[:len(token)-4], kind: KindInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Authenticate(tt.header)
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.kind, authErr.Kind)
		})
	}

	identity, err := tm.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.AccountID)
	assert.Equal(t, models.RoleAdmin, identity.Role)
}

func TestAuthenticateInvalidTokenKeepsReason(t *testing.T) {
	tm := NewTokenManager(testSecret, testIssuer, time.Hour)
	_, err := tm.Authenticate("Bearer not-a-jwt")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Error(t, authErr.Reason)
	assert.Contains(t, authErr.Error(), string(KindInvalidToken))
}

func TestAuthenticateMissingSecretIsNotAnAuthError(t *testing.T) {
	tm := NewTokenManager("", testIssuer, time.Hour)
	_, err := tm.Authenticate("Bearer a.b.c")

	var authErr *AuthError
	assert.False(t, errors.As(err, &authErr))
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	want := Identity{AccountID: 3, Identifier: "maria", Role: models.RoleUser}
	got, ok := IdentityFromContext(WithIdentity(context.Background(), want))
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.False(t, got.IsAdmin())
}
