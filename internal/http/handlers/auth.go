package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/http/respond"
	"github.com/hongminglow/demandhub-be/internal/metrics"
	"github.com/hongminglow/demandhub-be/internal/middleware"
	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/models/dto"
)

// AuthHandler owns the login endpoint and the caller's identity endpoint.
type AuthHandler struct {
	authn   *auth.Authenticator
	logger  logrus.FieldLogger
	metrics metrics.Recorder
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authn *auth.Authenticator, logger logrus.FieldLogger, rec metrics.Recorder) *AuthHandler {
	return &AuthHandler{authn: authn, logger: logger, metrics: rec}
}

// RegisterPublic attaches unauthenticated routes. limit wraps the login route.
func (h *AuthHandler) RegisterPublic(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/login", h.handleLogin)
}

// RegisterProtected attaches routes that require a verified identity.
func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Get("/me", h.handleMe)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		h.record(auth.OutcomeInvalid)
		return
	}

	result, err := h.authn.Login(r.Context(), auth.LoginInput{
		Identifier: normalizeIdentifier(req),
		Email:      req.Email,
		Password:   req.Password,
		Role:       models.Role(strings.TrimSpace(req.Role)),
	})
	h.record(auth.Outcome(err))
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, auth.ErrInvalidCredentials):
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		default:
			h.logger.WithError(err).WithField("request_id", middleware.RequestID(r.Context())).Error("login failed")
			respond.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respond.JSON(w, http.StatusOK, result)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing or malformed authentication token")
		return
	}
	respond.JSON(w, http.StatusOK, identity)
}

func (h *AuthHandler) record(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}

func normalizeIdentifier(req dto.LoginRequest) string {
	for _, candidate := range []string{req.Identifier, req.Username} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
