package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/demandhub-be/internal/models"
)

const companyColumns = `id, name, document, created_at`

func (s *Store) ListCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := []models.Company{}
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

func (s *Store) CreateCompany(ctx context.Context, company models.Company) (models.Company, error) {
	id, err := s.insert(ctx, `INSERT INTO companies (name, document, created_at) VALUES (?, ?, ?)`,
		company.Name, company.Document, time.Now().UTC())
	if err != nil {
		return models.Company{}, err
	}
	return s.getCompany(ctx, id)
}

func (s *Store) UpdateCompany(ctx context.Context, id int64, patch models.CompanyPatch) (models.Company, error) {
	err := s.execAffecting(ctx,
		`UPDATE companies SET name = COALESCE(?, name), document = COALESCE(?, document) WHERE id = ?`,
		patch.Name, patch.Document, id)
	if err != nil {
		return models.Company{}, err
	}
	return s.getCompany(ctx, id)
}

func (s *Store) DeleteCompany(ctx context.Context, id int64) error {
	return s.execAffecting(ctx, `DELETE FROM companies WHERE id = ?`, id)
}

func (s *Store) getCompany(ctx context.Context, id int64) (models.Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	return scanCompany(row)
}

func scanCompany(row rowScanner) (models.Company, error) {
	var company models.Company
	if err := row.Scan(&company.ID, &company.Name, &company.Document, &company.CreatedAt); err != nil {
		return models.Company{}, mapError(err)
	}
	return company, nil
}
