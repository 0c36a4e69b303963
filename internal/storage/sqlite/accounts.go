package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/demandhub-be/internal/models"
)

const accountColumns = `id, identifier, display_name, COALESCE(email, ''), role, COALESCE(password_hash, ''), created_at`

func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	id, err := s.insert(ctx, `
INSERT INTO accounts (identifier, display_name, email, role, password_hash, created_at)
VALUES (?, ?, NULLIF(?, ''), ?, ?, ?)`,
		account.Identifier,
		account.DisplayName,
		account.Email,
		string(account.Role),
		account.PasswordHash,
		time.Now().UTC(),
	)
	if err != nil {
		return models.Account{}, err
	}
	return s.GetAccount(ctx, id)
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE identifier = ?`, identifier)
	return scanAccount(row)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (s *Store) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id DESC`)
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

func (s *Store) UpdateAccount(ctx context.Context, id int64, patch models.AccountPatch) (models.Account, error) {
	err := s.execAffecting(ctx, `
UPDATE accounts SET
	display_name = COALESCE(?, display_name),
	email = CASE WHEN ? IS NULL THEN email ELSE NULLIF(?, '') END,
	password_hash = COALESCE(?, password_hash),
	legacy_password = CASE WHEN ? IS NULL THEN legacy_password ELSE NULL END
WHERE id = ?`,
		patch.DisplayName, patch.Email, patch.Email, patch.PasswordHash, patch.PasswordHash, id)
	if err != nil {
		return models.Account{}, err
	}
	return s.GetAccount(ctx, id)
}

func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	return s.execAffecting(ctx, `DELETE FROM accounts WHERE id = ?`, id)
}

func (s *Store) ListLegacyCredentials(ctx context.Context) ([]models.LegacyCredential, error) {
	rows, err := s.db.QueryContext(ctx, `
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
			return nil, fmt.Errorf("scan legacy credential: %w", err)
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceLegacyCredential(ctx context.Context, id int64, hash string) error {
	return s.execAffecting(ctx,
		`UPDATE accounts SET password_hash = ?, legacy_password = NULL WHERE id = ?`, hash, id)
}

func scanAccount(row rowScanner) (models.Account, error) {
	var account models.Account
	var role string
	if err := row.Scan(
		&account.ID,
		&account.Identifier,
		&account.DisplayName,
		&account.Email,
		&role,
		&account.PasswordHash,
		&account.CreatedAt,
	); err != nil {
		return models.Account{}, mapError(err)
	}
	account.Role = models.Role(role)
	return account, nil
}
