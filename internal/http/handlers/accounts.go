package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/http/respond"
	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/models/dto"
	"github.com/hongminglow/demandhub-be/internal/service"
)

// AccountHandler manages admin and user accounts. Routes are admin-only.
type AccountHandler struct {
	accounts *service.AccountService
	logger   logrus.FieldLogger
}

func NewAccountHandler(accounts *service.AccountService, logger logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Register mounts the account routes. /users is kept for dashboards built
// against the older path.
func (h *AccountHandler) Register(r chi.Router) {
	routes := func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	}
	r.Route("/accounts", routes)
	r.Route("/users", routes)
}

func (h *AccountHandler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err, "account not found")
		return
	}
	respond.JSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := h.accounts.Register(r.Context(), service.NewAccount{
		Identifier:  req.Username,
		DisplayName: req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        models.Role(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		writeError(w, r, h.logger, err, "account not found")
		return
	}
	respond.JSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	account, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err, "account not found")
		return
	}
	respond.JSON(w, http.StatusOK, account)
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role != nil {
		respond.Error(w, http.StatusBadRequest, "role cannot be changed")
		return
	}
	account, err := h.accounts.Update(r.Context(), id, service.AccountUpdate{
		DisplayName: req.Name,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err, "account not found")
		return
	}
	respond.JSON(w, http.StatusOK, account)
}

func (h *AccountHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if identity, _ := auth.IdentityFromContext(r.Context()); identity.AccountID == id {
		respond.Error(w, http.StatusBadRequest, "cannot delete the signed-in account")
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err, "account not found")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"id": id})
}
