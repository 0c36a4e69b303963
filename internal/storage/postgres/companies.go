package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/demandhub-be/internal/models"
)

const companyColumns = `id, name, document, created_at`

func (s *Store) ListCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY id DESC`)
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
	row := s.pool.QueryRow(ctx,
		`INSERT INTO companies (name, document) VALUES ($1, $2) RETURNING `+companyColumns,
		company.Name, company.Document)
	return scanCompany(row)
}

func (s *Store) UpdateCompany(ctx context.Context, id int64, patch models.CompanyPatch) (models.Company, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE companies SET name = COALESCE($2, name), document = COALESCE($3, document)
		WHERE id = $1
		RETURNING `+companyColumns,
		id, patch.Name, patch.Document)
	return scanCompany(row)
}

func (s *Store) DeleteCompany(ctx context.Context, id int64) error {
	return execAffecting(ctx, s.pool, `DELETE FROM companies WHERE id = $1`, id)
}

func scanCompany(row pgx.Row) (models.Company, error) {
	var company models.Company
	if err := row.Scan(&company.ID, &company.Name, &company.Document, &company.CreatedAt); err != nil {
		return models.Company{}, mapError(err)
	}
	return company, nil
}
