package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/http/respond"
	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/models/dto"
	"github.com/hongminglow/demandhub-be/internal/storage"
)

type CompanyHandler struct {
	store  storage.CompanyStore
	logger logrus.FieldLogger
}

func NewCompanyHandler(store storage.CompanyStore, logger logrus.FieldLogger) *CompanyHandler {
	return &CompanyHandler{store: store, logger: logger}
}

func (h *CompanyHandler) Register(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *CompanyHandler) list(w http.ResponseWriter, r *http.Request) {
	companies, err := h.store.ListCompanies(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err, "company not found")
		return
	}
	respond.JSON(w, http.StatusOK, companies)
}

func (h *CompanyHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, "company name is required")
		return
	}
	company, err := h.store.CreateCompany(r.Context(), models.Company{
		Name:     strings.TrimSpace(*req.Name),
		Document: trimmed(req.Document),
	})
	if err != nil {
		writeError(w, r, h.logger, err, "company not found")
		return
	}
	respond.JSON(w, http.StatusCreated, company)
}

func (h *CompanyHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req dto.CompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil && req.Document == nil {
		respond.Error(w, http.StatusBadRequest, "provide at least one field to update")
		return
	}
	name := trimmed(req.Name)
	if name != nil && *name == "" {
		respond.Error(w, http.StatusBadRequest, "company name cannot be empty")
		return
	}
	company, err := h.store.UpdateCompany(r.Context(), id, models.CompanyPatch{
		Name:     name,
		Document: trimmed(req.Document),
	})
	if err != nil {
		writeError(w, r, h.logger, err, "company not found")
		return
	}
	respond.JSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteCompany(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err, "company not found")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"id": id})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
