// Package command contains the CLI command constructors.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/config"
	"github.com/hongminglow/demandhub-be/internal/logging"
	"github.com/hongminglow/demandhub-be/internal/storage"
	"github.com/hongminglow/demandhub-be/internal/storage/postgres"
	"github.com/hongminglow/demandhub-be/internal/storage/sqlite"
)

type envKey struct{}

// env is the configuration and logger shared by every subcommand.
type env struct {
	cfg    config.Config
	logger *logrus.Logger
}

// RootCommand instantiates the root command, with all sub-commands bound.
// Running it without a subcommand starts the HTTP server.
func RootCommand() *cobra.Command {
	serve := serveCommand()
	cmd := &cobra.Command{
		Use:          "demandhub [command]",
		Short:        "Demand tracking API for chatbot-services companies",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{cfg: cfg, logger: logger}))
			return nil
		},
		RunE: serve.RunE,
	}

	cmd.AddCommand(
		serve,
		migrateCommand(),
		seedAdminCommand(),
		rehashCommand(),
		createAccountCommand(),
	)
	return cmd
}

func loadEnv(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey{}).(*env)
	if !ok {
		return nil, errors.New("configuration was not loaded")
	}
	return e, nil
}

// openStore builds the configured storage adapter. Migrations run on open.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return sqlite.NewStore(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return postgres.NewStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func newHasher(cfg config.Config) (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(cfg.BcryptCost)
}

func closeStore(store storage.Store, runErr *error) {
	if err := store.Close(); err != nil {
		*runErr = errors.Join(*runErr, err)
	}
}
