package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/demandhub-be/internal/models"
)

const accountColumns = `id, identifier, display_name, COALESCE(email, ''), role, COALESCE(password_hash, ''), created_at`

// CreateAccount inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	query := `
		INSERT INTO accounts (identifier, display_name, email, role, password_hash)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING ` + accountColumns
	row := s.pool.QueryRow(ctx, query, account.Identifier, account.DisplayName, account.Email, string(account.Role), account.PasswordHash)
	return scanAccount(row)
}

// FindByIdentifier fetches an account by exact identifier.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE identifier = $1`
	return scanAccount(s.pool.QueryRow(ctx, query, identifier))
}

// FindByEmail fetches an account by its stored email.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(s.pool.QueryRow(ctx, query, email))
}

// GetAccount fetches an account by id.
func (s *Store) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(s.pool.QueryRow(ctx, query, id))
}

// ListAccounts returns all accounts, newest first.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpdateAccount applies a partial update. Setting a password hash clears any legacy password.
func (s *Store) UpdateAccount(ctx context.Context, id int64, patch models.AccountPatch) (models.Account, error) {
	query := `
		UPDATE accounts SET
			display_name = COALESCE($2, display_name),
			email = CASE WHEN $3::text IS NULL THEN email ELSE NULLIF($3::text, '') END,
			password_hash = COALESCE($4, password_hash),
			legacy_password = CASE WHEN $4::text IS NULL THEN legacy_password ELSE NULL END
		WHERE id = $1
		RETURNING ` + accountColumns
	row := s.pool.QueryRow(ctx, query, id, patch.DisplayName, patch.Email, patch.PasswordHash)
	return scanAccount(row)
}

// DeleteAccount removes an account.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	return execAffecting(ctx, s.pool, `DELETE FROM accounts WHERE id = $1`, id)
}

// ListLegacyCredentials returns accounts whose only credential is a plaintext password.
func (s *Store) ListLegacyCredentials(ctx context.Context) ([]models.LegacyCredential, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, legacy_password FROM accounts
		WHERE legacy_password IS NOT NULL AND legacy_password <> ''
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list legacy credentials: %w", err)
	}
	defer rows.Close()

	var out []models.LegacyCredential
	for rows.Next() {
		var cred models.LegacyCredential
		if err := rows.Scan(&cred.AccountID, &cred.Password); err != nil {
			return nil, err
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

// ReplaceLegacyCredential stores the hash and drops the plaintext password.
func (s *Store) ReplaceLegacyCredential(ctx context.Context, id int64, hash string) error {
	return execAffecting(ctx, s.pool,
		`UPDATE accounts SET password_hash = $2, legacy_password = NULL WHERE id = $1`, id, hash)
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	var role string
	if err := row.Scan(&account.ID, &account.Identifier, &account.DisplayName, &account.Email, &role, &account.PasswordHash, &account.CreatedAt); err != nil {
		return models.Account{}, mapError(err)
	}
	account.Role = models.Role(role)
	return account, nil
}
