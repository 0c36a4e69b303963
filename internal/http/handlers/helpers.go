package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/http/respond"
	"github.com/hongminglow/demandhub-be/internal/middleware"
	"github.com/hongminglow/demandhub-be/internal/storage"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// writeError maps service and storage errors to responses. Unknown errors are
// logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error, notFound string) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "record already exists")
	case errors.Is(err, storage.ErrInvalidReference):
		respond.Error(w, http.StatusBadRequest, "referenced record does not exist")
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Error("request failed")
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
