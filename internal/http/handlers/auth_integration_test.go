package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/middleware"
	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/service"
	"github.com/hongminglow/demandhub-be/internal/storage/postgres"
)

// TestAuthIntegration exercises account creation, login and a protected route against a live Postgres database.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_POSTGRES_INTEGRATION") != "true" {
		t.Skip("set RUN_POSTGRES_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	hasher, err := auth.NewPasswordHasher(auth.MinCost)
	if err != nil {
		t.Fatalf("init hasher: %v", err)
	}
	tokens := auth.NewTokenManager(mustGetEnv(t, "JWT_SECRET"), envOr("JWT_ISSUER", "demandhub-backend"), mustGetTTL(t))
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	password := fmt.Sprintf("Pass!%d", time.Now().UnixNano())
	accounts := service.NewAccountService(store, hasher)
	created, err := accounts.Register(ctx, service.NewAccount{
		Identifier:  username,
		DisplayName: "API Test",
		Email:       username + "@example.com",
		Password:    password,
		Role:        models.RoleUser,
	})
	if err != nil {
		t.Fatalf("register account: %v", err)
	}
	defer func() { _ = accounts.Delete(ctx, created.ID) }()

	r := chi.NewRouter()
	authHandler := NewAuthHandler(auth.NewAuthenticator(store, hasher, tokens), logger, nil)
	authHandler.RegisterPublic(r, func(next http.Handler) http.Handler { return next })
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, logger, nil))
		authHandler.RegisterProtected(r)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	loggedIn := requestLogin(t, ts.URL, username, password)
	if loggedIn.Account.ID != created.ID {
		t.Fatalf("login returned wrong account id: want %d got %d", created.ID, loggedIn.Account.ID)
	}
	if strings.TrimSpace(loggedIn.Token) == "" {
		t.Fatal("login response missing token")
	}

	me := requestMe(t, ts.URL, loggedIn.Token)
	if me.AccountID != created.ID || me.Identifier != username {
		t.Fatalf("identity mismatch: got %+v", me)
	}

	t.Logf("created account %s (id=%d) and successfully logged in via /login", username, created.ID)
}

type loginResponseBody struct {
	Success bool `json:"success"`
	Data    struct {
		Token   string         `json:"token"`
		Account models.Account `json:"account"`
	} `json:"data"`
}

type loginResult struct {
	Token   string
	Account models.Account
}

func requestLogin(t *testing.T, baseURL, identifier, password string) loginResult {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		t.Fatalf("marshal login payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/login", baseURL), bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	var out loginResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if !out.Success {
		t.Fatal("login envelope reported failure")
	}
	return loginResult{Token: out.Data.Token, Account: out.Data.Account}
}

func requestMe(t *testing.T, baseURL, token string) auth.Identity {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/me", baseURL), nil)
	if err != nil {
		t.Fatalf("build me request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var out struct {
		Data auth.Identity `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	return out.Data
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func envOr(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func mustGetTTL(t *testing.T) time.Duration {
	t.Helper()
	minutesStr := envOr("JWT_TTL_MINUTES", "60")
	minutes, err := strconv.Atoi(minutesStr)
	if err != nil || minutes <= 0 {
		t.Fatalf("invalid JWT_TTL_MINUTES value: %q", minutesStr)
	}
	return time.Duration(minutes) * time.Minute
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
