package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/demandhub-be/internal/models"
)

const demandColumns = `id, title, description, status, priority, type, company_id, account_id, created_at, updated_at`

// ListDemands returns demands matching filter, newest first.
func (s *Store) ListDemands(ctx context.Context, filter models.DemandFilter) ([]models.Demand, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+demandColumns+` FROM demands
		WHERE ($1::text = '' OR status = $1)
		  AND ($2::bigint = 0 OR company_id = $2)
		ORDER BY created_at DESC, id DESC`,
		filter.Status, filter.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("list demands: %w", err)
	}
	defer rows.Close()

	demands := []models.Demand{}
	for rows.Next() {
		demand, err := scanDemand(rows)
		if err != nil {
			return nil, err
		}
		demands = append(demands, demand)
	}
	return demands, rows.Err()
}

func (s *Store) GetDemand(ctx context.Context, id int64) (models.Demand, error) {
	return scanDemand(s.pool.QueryRow(ctx, `SELECT `+demandColumns+` FROM demands WHERE id = $1`, id))
}

func (s *Store) CreateDemand(ctx context.Context, demand models.Demand) (models.Demand, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO demands (title, description, status, priority, type, company_id, account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+demandColumns,
		demand.Title, demand.Description, demand.Status, demand.Priority, demand.Type, demand.CompanyID, demand.AccountID)
	return scanDemand(row)
}

func (s *Store) UpdateDemand(ctx context.Context, id int64, patch models.DemandPatch) (models.Demand, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE demands SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			status = COALESCE($4, status),
			priority = COALESCE($5, priority),
			type = COALESCE($6, type),
			company_id = COALESCE($7, company_id),
			account_id = COALESCE($8, account_id),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+demandColumns,
		id, patch.Title, patch.Description, patch.Status, patch.Priority, patch.Type, patch.CompanyID, patch.AccountID)
	return scanDemand(row)
}

func (s *Store) DeleteDemand(ctx context.Context, id int64) error {
	return execAffecting(ctx, s.pool, `DELETE FROM demands WHERE id = $1`, id)
}

// ListComments returns a demand's thread, oldest first.
func (s *Store) ListComments(ctx context.Context, demandID int64) ([]models.Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, demand_id, COALESCE(author_id, 0), author_name, content, is_admin, created_at
		FROM demand_comments WHERE demand_id = $1
		ORDER BY created_at, id`, demandID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (s *Store) CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO demand_comments (demand_id, author_id, author_name, content, is_admin)
		VALUES ($1, NULLIF($2::bigint, 0), $3, $4, $5)
		RETURNING id, demand_id, COALESCE(author_id, 0), author_name, content, is_admin, created_at`,
		comment.DemandID, comment.AuthorID, comment.AuthorName, comment.Content, comment.IsAdmin)
	return scanComment(row)
}

func scanDemand(row pgx.Row) (models.Demand, error) {
	var d models.Demand
	if err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Status, &d.Priority, &d.Type, &d.CompanyID, &d.AccountID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.Demand{}, mapError(err)
	}
	return d, nil
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.DemandID, &c.AuthorID, &c.AuthorName, &c.Content, &c.IsAdmin, &c.CreatedAt); err != nil {
		return models.Comment{}, mapError(err)
	}
	return c, nil
}
