package command

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/server"
	"github.com/hongminglow/demandhub-be/internal/service"
)

const shutdownTimeout = 15 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			cfg, logger := e.cfg, e.logger

			hasher, err := newHasher(cfg)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore(store, &runErr)

			accounts := service.NewAccountService(store, hasher)
			if cfg.DefaultAdmin.Enabled {
				admin, created, err := accounts.EnsureAdmin(cmd.Context(), cfg.DefaultAdmin.Username, cfg.DefaultAdmin.Password, cfg.DefaultAdmin.Name)
				if err != nil {
					return err
				}
				logger.WithField("username", admin.Identifier).WithField("created", created).Info("default admin available")
			}
			if n, err := accounts.RehashLegacy(cmd.Context()); err != nil {
				return err
			} else if n > 0 {
				logger.WithField("accounts", n).Warn("migrated plaintext passwords to bcrypt")
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			srv := server.New(cfg, server.Deps{
				Store:    store,
				Hasher:   hasher,
				Tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
				Logger:   logger,
				Registry: registry,
			})

			grp, ctx := errgroup.WithContext(cmd.Context())
			grp.Go(func() error {
				logger.WithField("addr", cfg.HTTPAddress()).WithField("storage", cfg.StorageDriver).Info("demandhub backend listening")
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			grp.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.WithError(err).Error("graceful shutdown error")
					return err
				}
				logger.Info("server stopped")
				return nil
			})
			return grp.Wait()
		},
	}
}
