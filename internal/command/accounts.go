package command

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/service"
	"github.com/hongminglow/demandhub-be/internal/storage"
)

func newAccountService(store storage.AccountStore, hasher *auth.PasswordHasher) *service.AccountService {
	return service.NewAccountService(store, hasher)
}

func seedAdminCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the default admin account if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			hasher, err := newHasher(e.cfg)
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer closeStore(store, &runErr)

			seed := e.cfg.DefaultAdmin
			admin, created, err := newAccountService(store, hasher).EnsureAdmin(cmd.Context(), seed.Username, seed.Password, seed.Name)
			if err != nil {
				return err
			}
			e.logger.WithField("username", admin.Identifier).WithField("created", created).Info("default admin available")
			return nil
		},
	}
}

func createAccountCommand() *cobra.Command {
	var (
		name  string
		email string
		role  string
	)
	cmd := &cobra.Command{
		Use:   "create-account USERNAME",
		Short: "Create an admin or user account",
		Long: "Creates an account for USERNAME. The password is read from the interactive\n" +
			"prompt, or from the first line of stdin when it is not a terminal.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			e, err := loadEnv(cmd.Context())
			if err != nil {
				return err
			}
			hasher, err := newHasher(e.cfg)
			if err != nil {
				return err
			}
			password, err := readPassword("password: ")
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer closeStore(store, &runErr)

			displayName := name
			if displayName == "" {
				displayName = args[0]
			}
			account, err := newAccountService(store, hasher).Register(cmd.Context(), service.NewAccount{
				Identifier:  args[0],
				DisplayName: displayName,
				Email:       email,
				Password:    password,
				Role:        models.Role(role),
			})
			if errors.Is(err, storage.ErrAlreadyExists) {
				return fmt.Errorf("username %q is already in use", args[0])
			}
			if err != nil {
				return err
			}
			e.logger.WithField("id", account.ID).WithField("username", account.Identifier).WithField("role", account.Role).Info("account created")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to USERNAME)")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "admin or user")
	return cmd
}

func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if _, err := os.Stderr.WriteString(prompt); err != nil {
			return "", err
		}
		raw, err := term.ReadPassword(fd)
		_, _ = os.Stderr.WriteString("\n")
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
