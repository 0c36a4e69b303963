package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/config"
	"github.com/hongminglow/demandhub-be/internal/service"
	"github.com/hongminglow/demandhub-be/internal/storage/sqlite"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	svc     *service.AccountService
}

func newTestServer(t *testing.T, burst int) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.NewStore(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hasher, err := auth.NewPasswordHasher(auth.MinCost)
	require.NoError(t, err)
	svc := service.NewAccountService(store, hasher)
	_, _, err = svc.EnsureAdmin(ctx, "admin", "admin123456", "Administrador Padrão")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := config.Config{
		Port:        "0",
		CORSOrigins: []string{"*"},
		LoginRate:   1,
		LoginBurst:  burst,
	}
	handler, limiter := NewHandler(cfg, Deps{
		Store:    store,
		Hasher:   hasher,
		Tokens:   auth.NewTokenManager("test-secret", "demandhub-test", time.Hour),
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	})
	t.Cleanup(limiter.Stop)

	return &testServer{t: t, handler: handler, svc: svc}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(identifier, password string) string {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": identifier,
		"password": password,
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Token   string `json:"token"`
		Account struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"account"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(s.t, result.Token)
	require.Equal(s.t, identifier, result.Account.Username)
	return result.Token
}

func TestLoginAndProtectedRoute(t *testing.T) {
	s := newTestServer(t, 100)

	w, env := s.do(http.MethodPost, "/login", "", map[string]string{"identifier": "admin", "password": "admin123456", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "$2a$")

	token := s.login("admin", "admin123456")

	w, env = s.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"username":"admin","role":"admin"}`, string(env.Data))

	w, _ = s.do(http.MethodGet, "/demands", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, 100)

	for _, path := range []string{"/me", "/api/demands", "/companies", "/api/accounts", "/demands/1/comments"} {
		w, env := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		require.NotNil(t, env.Error, path)
		assert.Equal(t, "missing or malformed authentication token", env.Error.Message)
	}

	w, env := s.do(http.MethodGet, "/demands", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid token", env.Error.Message)
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	s := newTestServer(t, 100)

	unknown, _ := s.do(http.MethodPost, "/login", "", map[string]string{"username": "nobody", "password": "admin123456"})
	wrong, _ := s.do(http.MethodPost, "/login", "", map[string]string{"username": "admin", "password": "wrong-password"})
	role, _ := s.do(http.MethodPost, "/login", "", map[string]string{"username": "admin", "password": "admin123456", "role": "user"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, unknown.Code, role.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Equal(t, unknown.Body.String(), role.Body.String())
}

func TestLoginValidation(t *testing.T) {
	s := newTestServer(t, 100)

	w, env := s.do(http.MethodPost, "/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	body := map[string]string{"username": "admin", "password": "wrong-password"}

	for i := 0; i < 2; i++ {
		w, _ := s.do(http.MethodPost, "/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, _ := s.do(http.MethodPost, "/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestAccountsAreAdminOnly(t *testing.T) {
	s := newTestServer(t, 100)
	adminToken := s.login("admin", "admin123456")

	w, _ := s.do(http.MethodPost, "/accounts", adminToken, map[string]string{
		"username": "maria", "name": "Maria", "password": "maria-pass", "role": "user",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(http.MethodPost, "/accounts", adminToken, map[string]string{
		"username": "maria", "name": "Maria 2", "password": "maria-pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	userToken := s.login("maria", "maria-pass")
	w, env := s.do(http.MethodGet, "/accounts", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "insufficient permissions", env.Error.Message)

	w, env = s.do(http.MethodGet, "/accounts", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "$2a$")

	w, _ = s.do(http.MethodPut, "/accounts/2", adminToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, "/accounts/1", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDemandWorkflow(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.login("admin", "admin123456")

	w, env := s.do(http.MethodPost, "/api/companies", token, map[string]string{"name": "Acme Bots"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var company struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &company))

	w, env = s.do(http.MethodPost, "/api/demands", token, map[string]any{
		"title":     "Add WhatsApp channel",
		"priority":  "alta",
		"companyId": company.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var demand struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		Type   string `json:"type"`
		UserID *int64 `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &demand))
	assert.Equal(t, "novo", demand.Status)
	assert.Equal(t, "nova-funcionalidade", demand.Type)
	require.NotNil(t, demand.UserID)
	assert.Equal(t, int64(1), *demand.UserID)

	w, _ = s.do(http.MethodPost, "/api/demands", token, map[string]any{"title": "x", "status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPut, "/api/demands/1", token, map[string]string{"status": "em-analise"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/demands?status=em-analise", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Add WhatsApp channel")

	w, env = s.do(http.MethodPost, "/api/demands/1/comments", token, map[string]any{"content": "On it", "isAdmin": false})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment struct {
		Author  string `json:"author"`
		IsAdmin bool   `json:"isAdmin"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &comment))
	assert.True(t, comment.IsAdmin)
	assert.Equal(t, "Administrador Padrão", comment.Author)

	w, _ = s.do(http.MethodPost, "/api/demands/99/comments", token, map[string]string{"content": "lost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/api/demands/99", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	s := newTestServer(t, 100)

	w, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"ok"`)

	w, env = s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "route not found", env.Error.Message)

	s.login("admin", "admin123456")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `demandhub_login_attempts_total{outcome="authenticated"} 1`)
}

func TestLoginRateLimitIgnoresForwardedHeaders(t *testing.T) {
	s := newTestServer(t, 2)

	statuses := map[int]int{}
	for i := 0; i < 20; i++ {
		raw, err := json.Marshal(map[string]string{"username": "admin", "password": "wrong-password"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("True-Client-IP", fmt.Sprintf("192.0.2.%d", i+10))
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)
		statuses[w.Code]++
	}

	assert.Equal(t, 2, statuses[http.StatusUnauthorized])
	assert.Equal(t, 18, statuses[http.StatusTooManyRequests])
}

func TestLoginWithEmail(t *testing.T) {
	s := newTestServer(t, 100)
	_, err := s.svc.Register(context.Background(), service.NewAccount{
		Identifier:  "joao",
		DisplayName: "João",
		Email:       "Joao@Example.com",
		Password:    "password123",
	})
	require.NoError(t, err)

	w, env := s.do(http.MethodPost, "/login", "", map[string]string{"email": "joao@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"username":"joao"`)

	w, _ = s.do(http.MethodPost, "/login", "", map[string]string{"email": "joao@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/accounts", s.login("admin", "admin123456"), map[string]string{
		"username": "joao-dup", "name": "Dup", "email": "JOAO@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUsersPathAliasesAccounts(t *testing.T) {
	s := newTestServer(t, 100)
	adminToken := s.login("admin", "admin123456")

	w, _ := s.do(http.MethodPost, "/api/users", adminToken, map[string]string{
		"username": "carla", "name": "Carla", "password": "carla-pass", "role": "user",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodGet, "/users/2", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"carla"`)

	w, _ = s.do(http.MethodGet, "/users", s.login("carla", "carla-pass"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
