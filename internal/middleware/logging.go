package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/metrics"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// requestInfo is filled in by inner middleware so the outer logger can report it.
type requestInfo struct {
	id        string
	accountID int64
}

type requestInfoKey struct{}

// RequestID returns the correlation id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		return info.id
	}
	return ""
}

func annotateAccount(ctx context.Context, accountID int64) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.accountID = accountID
	}
}

// Logging logs one structured line per request and records request metrics.
func Logging(logger logrus.FieldLogger, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			info := &requestInfo{id: r.Header.Get(RequestIDHeader)}
			if !validRequestID(info.id) {
				info.id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, info.id)

			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sr, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))

			duration := time.Since(start)
			route := routePattern(r)
			if rec != nil {
				rec.RecordRequest(r.Method, route, sr.statusCode, duration)
			}

			fields := logrus.Fields{
				"request_id":  info.id,
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      sr.statusCode,
				"duration_ms": float64(duration.Microseconds()) / 1000,
			}
			if info.accountID != 0 {
				fields["account_id"] = info.accountID
			}
			entry := logger.WithFields(fields)
			switch {
			case sr.statusCode >= http.StatusInternalServerError:
				entry.Error("http request")
			case sr.statusCode >= http.StatusBadRequest:
				entry.Warn("http request")
			default:
				entry.Info("http request")
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// validRequestID accepts caller ids of at most 64 chars from [A-Za-z0-9._-].
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
