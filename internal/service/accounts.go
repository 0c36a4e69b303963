package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hongminglow/demandhub-be/internal/auth"
	"github.com/hongminglow/demandhub-be/internal/models"
	"github.com/hongminglow/demandhub-be/internal/storage"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
)

// NewAccount is the input for creating an admin or user.
type NewAccount struct {
	Identifier  string
	DisplayName string
	Email       string
	Password    string
	Role        models.Role
}

// AccountUpdate holds optional changes. The role cannot be changed.
type AccountUpdate struct {
	DisplayName *string
	Email       *string
	Password    *string
}

// AccountService owns account lifecycle rules on top of an AccountStore.
type AccountService struct {
	store  storage.AccountStore
	hasher *auth.PasswordHasher
}

func NewAccountService(store storage.AccountStore, hasher *auth.PasswordHasher) *AccountService {
	return &AccountService{store: store, hasher: hasher}
}

// Register validates input, hashes the password and inserts the account.
// A duplicate identifier yields storage.ErrAlreadyExists.
func (s *AccountService) Register(ctx context.Context, in NewAccount) (models.Account, error) {
	in.Identifier = strings.TrimSpace(in.Identifier)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Email = auth.NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if err := validateNewAccount(in); err != nil {
		return models.Account{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.Account{}, err
	}
	created, err := s.store.CreateAccount(ctx, models.Account{
		Identifier:   in.Identifier,
		DisplayName:  in.DisplayName,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
	})
	if err != nil {
		return models.Account{}, err
	}
	return sanitize(created), nil
}

// EnsureAdmin creates the admin account unless the identifier is already taken.
// The second return value reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, identifier, password, name string) (models.Account, bool, error) {
	existing, err := s.store.FindByIdentifier(ctx, strings.TrimSpace(identifier))
	if err == nil {
		return sanitize(existing), false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Account{}, false, fmt.Errorf("lookup admin: %w", err)
	}

	created, err := s.Register(ctx, NewAccount{
		Identifier:  identifier,
		DisplayName: name,
		Password:    password,
		Role:        models.RoleAdmin,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		// created concurrently by another instance
		existing, err := s.store.FindByIdentifier(ctx, strings.TrimSpace(identifier))
		if err != nil {
			return models.Account{}, false, err
		}
		return sanitize(existing), false, nil
	}
	if err != nil {
		return models.Account{}, false, err
	}
	return created, true, nil
}

// RehashLegacy replaces every stored plaintext password with a bcrypt hash
// and returns the number of accounts migrated.
func (s *AccountService) RehashLegacy(ctx context.Context) (int, error) {
	creds, err := s.store.ListLegacyCredentials(ctx)
	if err != nil {
		return 0, err
	}
	migrated := 0
	for _, cred := range creds {
		if err := ctx.Err(); err != nil {
			return migrated, err
		}
		hash, err := s.hasher.Hash(cred.Password)
		if err != nil {
			return migrated, err
		}
		if err := s.store.ReplaceLegacyCredential(ctx, cred.AccountID, hash); err != nil {
			return migrated, fmt.Errorf("migrate account %d: %w", cred.AccountID, err)
		}
		migrated++
	}
	return migrated, nil
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i] = sanitize(accounts[i])
	}
	return accounts, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (models.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	return sanitize(account), nil
}

// Update applies a partial update, hashing a new password if one is given.
func (s *AccountService) Update(ctx context.Context, id int64, in AccountUpdate) (models.Account, error) {
	var patch models.AccountPatch
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if name == "" {
			return models.Account{}, auth.Validation("name cannot be empty")
		}
		patch.DisplayName = &name
	}
	if in.Email != nil {
		email := auth.NormalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return models.Account{}, err
		}
		patch.Email = &email
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return models.Account{}, err
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return models.Account{}, err
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return models.Account{}, auth.Validation("provide at least one field to update")
	}

	updated, err := s.store.UpdateAccount(ctx, id, patch)
	if err != nil {
		return models.Account{}, err
	}
	return sanitize(updated), nil
}

func (s *AccountService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteAccount(ctx, id)
}

func validateNewAccount(in NewAccount) error {
	if in.Identifier == "" || in.DisplayName == "" {
		return auth.Validation("username, password and name are required")
	}
	if !in.Role.Valid() {
		return auth.Validation("role must be admin or user")
	}
	if in.Email != "" {
		if err := validateEmail(in.Email); err != nil {
			return err
		}
	}
	return validatePassword(in.Password)
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return auth.Validation("email is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(strings.TrimSpace(password)) < minPasswordLength || !utf8.ValidString(password) {
		return auth.Validation("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return auth.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func sanitize(account models.Account) models.Account {
	account.PasswordHash = ""
	return account
}
