package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/config"
	"github.com/hongminglow/demandhub-be/internal/http/handlers"
	"github.com/hongminglow/demandhub-be/internal/http/respond"
	"github.com/hongminglow/demandhub-be/internal/metrics"
	"github.com/hongminglow/demandhub-be/internal/middleware"
	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/service"
	"github.com/hongminglow/demandhub-be/internal/storage"
)

// Deps are the collaborators the server is built from.
type Deps struct {
	Store    storage.Store
	Hasher   *auth.PasswordHasher
	Tokens   *auth.TokenManager
	Logger   logrus.FieldLogger
	Registry *prometheus.Registry
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	handler, limiter := NewHandler(cfg, deps)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, limiter: limiter}
}

// NewHandler builds the routed handler. The returned limiter must be stopped by the caller.
func NewHandler(cfg config.Config, deps Deps) (http.Handler, *middleware.RateLimiter) {
	collector := metrics.NewCollector(deps.Registry)
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		PerMinute: cfg.LoginRate,
		Burst:     cfg.LoginBurst,
	}, deps.Logger, collector)

	accounts := service.NewAccountService(deps.Store, deps.Hasher)
	authn := auth.NewAuthenticator(deps.Store, deps.Hasher, deps.Tokens)

	health := handlers.NewHealthHandler(time.Now(), deps.Store)
	authHandler := handlers.NewAuthHandler(authn, deps.Logger, collector)
	accountHandler := handlers.NewAccountHandler(accounts, deps.Logger)
	companyHandler := handlers.NewCompanyHandler(deps.Store, deps.Logger)
	demandHandler := handlers.NewDemandHandler(deps.Store, deps.Store, deps.Logger)

	r := chi.NewRouter()
	r.Use(middleware.Logging(deps.Logger, collector))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))

	routes := func(r chi.Router) {
		health.Register(r)
		authHandler.RegisterPublic(r, limiter.Middleware)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Tokens, deps.Logger, collector))
			authHandler.RegisterProtected(r)
			companyHandler.Register(r)
			demandHandler.Register(r)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				accountHandler.Register(r)
			})
		})
	}
	r.Group(routes)
	r.Route("/api", routes)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r, limiter
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.inner.Shutdown(ctx)
}
