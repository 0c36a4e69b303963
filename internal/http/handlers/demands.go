package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/http/respond"
	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/models/dto"
	"github.com/hongminglow/demandhub-be/internal/storage"
)

// AccountNamer resolves the display name stamped on comments.
type AccountNamer interface {
	GetAccount(ctx context.Context, id int64) (models.Account, error)
}

// DemandHandler serves demands and their comment threads.
type DemandHandler struct {
	store    storage.DemandStore
	accounts AccountNamer
	logger   logrus.FieldLogger
}

func NewDemandHandler(store storage.DemandStore, accounts AccountNamer, logger logrus.FieldLogger) *DemandHandler {
	return &DemandHandler{store: store, accounts: accounts, logger: logger}
}

func (h *DemandHandler) Register(r chi.Router) {
	r.Route("/demands", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			r.Get("/comments", h.listComments)
			r.Post("/comments", h.createComment)
		})
	})
}

func (h *DemandHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := models.DemandFilter{Status: strings.TrimSpace(r.URL.Query().Get("status"))}
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		respond.Error(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	if raw := r.URL.Query().Get("company_id"); raw != "" {
		companyID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || companyID <= 0 {
			respond.Error(w, http.StatusBadRequest, "invalid company_id filter")
			return
		}
		filter.CompanyID = companyID
	}

	demands, err := h.store.ListDemands(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err, "demand not found")
		return
	}
	respond.JSON(w, http.StatusOK, demands)
}

func (h *DemandHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.DemandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		respond.Error(w, http.StatusBadRequest, "demand title is required")
		return
	}
	if msg := validateDemandEnums(req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	demand := models.Demand{
		Title:       strings.TrimSpace(*req.Title),
		Description: req.Description,
		Status:      valueOr(req.Status, models.StatusNew),
		Priority:    valueOr(req.Priority, models.PriorityMedium),
		Type:        valueOr(req.Type, models.TypeFeature),
		CompanyID:   req.CompanyID,
		AccountID:   req.UserID,
	}
	if demand.AccountID == nil {
		if identity, ok := auth.IdentityFromContext(r.Context()); ok {
			demand.AccountID = &identity.AccountID
		}
	}

	created, err := h.store.CreateDemand(r.Context(), demand)
	if err != nil {
		writeError(w, r, h.logger, err, "demand not found")
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *DemandHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	demand, err := h.store.GetDemand(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "demand not found")
		return
	}
	respond.JSON(w, http.StatusOK, demand)
}

func (h *DemandHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req dto.DemandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch := models.DemandPatch{
		Title:       trimmed(req.Title),
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Type:        req.Type,
		CompanyID:   req.CompanyID,
		AccountID:   req.UserID,
	}
	if patch.Empty() {
		respond.Error(w, http.StatusBadRequest, "provide at least one field to update")
		return
	}
	if patch.Title != nil && *patch.Title == "" {
		respond.Error(w, http.StatusBadRequest, "demand title cannot be empty")
		return
	}
	if msg := validateDemandEnums(req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	demand, err := h.store.UpdateDemand(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err, "demand not found")
		return
	}
	respond.JSON(w, http.StatusOK, demand)
}

func (h *DemandHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteDemand(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err, "demand not found")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *DemandHandler) listComments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetDemand(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err, "demand not found")
		return
	}
	comments, err := h.store.ListComments(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "demand not found")
		return
	}
	respond.JSON(w, http.StatusOK, comments)
}

func (h *DemandHandler) createComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respond.Error(w, http.StatusBadRequest, "comment content is required")
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing or malformed authentication token")
		return
	}

	author := identity.Identifier
	if account, err := h.accounts.GetAccount(r.Context(), identity.AccountID); err == nil && account.DisplayName != "" {
		author = account.DisplayName
	}

	comment, err := h.store.CreateComment(r.Context(), models.Comment{
		DemandID:   id,
		AuthorID:   identity.AccountID,
		AuthorName: author,
		Content:    content,
		IsAdmin:    identity.IsAdmin(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReference) {
			respond.Error(w, http.StatusNotFound, "demand not found")
			return
		}
		writeError(w, r, h.logger, err, "demand not found")
		return
	}
	respond.JSON(w, http.StatusCreated, comment)
}

func validateDemandEnums(req dto.DemandRequest) string {
	switch {
	case req.Status != nil && !models.ValidStatus(*req.Status):
		return "invalid demand status"
	case req.Priority != nil && !models.ValidPriority(*req.Priority):
		return "invalid demand priority"
	case req.Type != nil && !models.ValidType(*req.Type):
		return "invalid demand type"
	}
	return ""
}

func valueOr(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return strings.TrimSpace(*v)
}
