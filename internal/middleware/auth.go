package middleware

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/http/respond"
	"github.com/hongminglow/demandhub-be/internal/metrics"
	"github.com/hongminglow/demandhub-be/internal/models"
)

// Messages returned to clients for authentication failures. The verification
// reason is logged, never sent.
const (
	msgMissingToken = "missing or malformed authentication token"
	msgInvalidToken = "invalid token"
	msgForbidden    = "insufficient permissions"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the request context. Every failure is a 401.
func RequireAuth(tokens *auth.TokenManager, logger logrus.FieldLogger, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := tokens.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				var authErr *auth.AuthError
				if !errors.As(err, &authErr) {
					logger.WithError(err).WithField("request_id", RequestID(r.Context())).Error("token verification unavailable")
					respond.Error(w, http.StatusInternalServerError, "internal error")
					return
				}
				if rec != nil {
					rec.RecordAuthFailure(string(authErr.Kind))
				}
				entry := logger.WithFields(logrus.Fields{
					"request_id": RequestID(r.Context()),
					"kind":       authErr.Kind,
					"path":       r.URL.Path,
				})
				if authErr.Reason != nil {
					entry = entry.WithField("reason", authErr.Reason.Error())
				}
				entry.Debug("authentication rejected")

				message := msgInvalidToken
				if authErr.Kind == auth.KindMissingOrMalformed {
					message = msgMissingToken
				}
				respond.Error(w, http.StatusUnauthorized, message)
				return
			}

			annotateAccount(r.Context(), identity.AccountID)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole allows only callers holding role. It must run after RequireAuth.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, msgMissingToken)
				return
			}
			if identity.Role != role {
				respond.Error(w, http.StatusForbidden, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
