package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/storage"
)

// CredentialLookup finds the account a login attempt refers to.
type CredentialLookup interface {
	FindByIdentifier(ctx context.Context, identifier string) (models.Account, error)
	FindByEmail(ctx context.Context, email string) (models.Account, error)
}

// LoginInput is a login attempt. Either Identifier or Email names the
// account; Identifier wins when both are set. Role is optional.
type LoginInput struct {
	Identifier string
	Email      string
	Password   string
	Role       models.Role
}

// LoginResult is handed back on successful authentication.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expires_in"`
	Account   models.Account `json:"account"`
}

// Login outcomes, used as metric labels.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeRejected      = "rejected"
	OutcomeInvalid       = "validation_error"
	OutcomeError         = "error"
)

// Authenticator runs the login flow against a credential store.
type Authenticator struct {
	accounts CredentialLookup
	hasher   *PasswordHasher
	tokens   *TokenManager
}

func NewAuthenticator(accounts CredentialLookup, hasher *PasswordHasher, tokens *TokenManager) *Authenticator {
	return &Authenticator{accounts: accounts, hasher: hasher, tokens: tokens}
}

// Login validates input, checks the credential and issues a token.
// Unknown identifiers, role mismatches and wrong passwords all return
// ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	identifier := strings.TrimSpace(in.Identifier)
	email := NormalizeEmail(in.Email)
	if (identifier == "" && email == "") || in.Password == "" {
		return LoginResult{}, Validation("identifier and password are required")
	}
	if in.Role != "" && !in.Role.Valid() {
		return LoginResult{}, Validation("role must be admin or user")
	}

	account, err := a.lookup(ctx, identifier, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.hasher.Burn(in.Password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	hashed := account.PasswordHash != ""
	if !hashed {
		a.hasher.Burn(in.Password)
	}
	passwordOK := a.hasher.Verify(in.Password, account.PasswordHash, hashed)
	if !passwordOK || (in.Role != "" && in.Role != account.Role) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := a.tokens.Generate(account)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	account.PasswordHash = ""
	return LoginResult{
		Token:     token,
		ExpiresIn: int64(a.tokens.TTL().Seconds()),
		Account:   account,
	}, nil
}

func (a *Authenticator) lookup(ctx context.Context, identifier, email string) (models.Account, error) {
	if identifier != "" {
		return a.accounts.FindByIdentifier(ctx, identifier)
	}
	return a.accounts.FindByEmail(ctx, email)
}

// NormalizeEmail is the form emails are stored and matched in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Outcome classifies a Login error for metrics.
func Outcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return OutcomeAuthenticated
	case errors.Is(err, ErrInvalidCredentials):
		return OutcomeRejected
	case errors.As(err, &verr):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
