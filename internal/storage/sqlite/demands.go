package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/demandhub-be/internal/models"
)

const demandColumns = `id, title, description, status, priority, type, company_id, account_id, created_at, updated_at`

func (s *Store) ListDemands(ctx context.Context, filter models.DemandFilter) ([]models.Demand, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+demandColumns+` FROM demands
WHERE (? = '' OR status = ?)
  AND (? = 0 OR company_id = ?)
ORDER BY created_at DESC, id DESC`,
		filter.Status, filter.Status, filter.CompanyID, filter.CompanyID)
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
	row := s.db.QueryRowContext(ctx, `SELECT `+demandColumns+` FROM demands WHERE id = ?`, id)
	return scanDemand(row)
}

func (s *Store) CreateDemand(ctx context.Context, demand models.Demand) (models.Demand, error) {
	now := time.Now().UTC()
	id, err := s.insert(ctx, `
INSERT INTO demands (title, description, status, priority, type, company_id, account_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		demand.Title,
		demand.Description,
		demand.Status,
		demand.Priority,
		demand.Type,
		demand.CompanyID,
		demand.AccountID,
		now,
		now,
	)
	if err != nil {
		return models.Demand{}, err
	}
	return s.GetDemand(ctx, id)
}

func (s *Store) UpdateDemand(ctx context.Context, id int64, patch models.DemandPatch) (models.Demand, error) {
	err := s.execAffecting(ctx, `
UPDATE demands SET
	title = COALESCE(?, title),
	description = COALESCE(?, description),
	status = COALESCE(?, status),
	priority = COALESCE(?, priority),
	type = COALESCE(?, type),
	company_id = COALESCE(?, company_id),
	account_id = COALESCE(?, account_id),
	updated_at = ?
WHERE id = ?`,
		patch.Title, patch.Description, patch.Status, patch.Priority, patch.Type,
		patch.CompanyID, patch.AccountID, time.Now().UTC(), id)
	if err != nil {
		return models.Demand{}, err
	}
	return s.GetDemand(ctx, id)
}

func (s *Store) DeleteDemand(ctx context.Context, id int64) error {
	return s.execAffecting(ctx, `DELETE FROM demands WHERE id = ?`, id)
}

func (s *Store) ListComments(ctx context.Context, demandID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, demand_id, COALESCE(author_id, 0), author_name, content, is_admin, created_at
FROM demand_comments WHERE demand_id = ?
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
	id, err := s.insert(ctx, `
INSERT INTO demand_comments (demand_id, author_id, author_name, content, is_admin, created_at)
VALUES (?, NULLIF(?, 0), ?, ?, ?, ?)`,
		comment.DemandID, comment.AuthorID, comment.AuthorName, comment.Content, comment.IsAdmin, time.Now().UTC())
	if err != nil {
		return models.Comment{}, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, demand_id, COALESCE(author_id, 0), author_name, content, is_admin, created_at
FROM demand_comments WHERE id = ?`, id)
	return scanComment(row)
}

func scanDemand(row rowScanner) (models.Demand, error) {
	var d models.Demand
	if err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Status, &d.Priority, &d.Type, &d.CompanyID, &d.AccountID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.Demand{}, mapError(err)
	}
	return d, nil
}

func scanComment(row rowScanner) (models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.DemandID, &c.AuthorID, &c.AuthorName, &c.Content, &c.IsAdmin, &c.CreatedAt); err != nil {
		return models.Comment{}, mapError(err)
	}
	return c, nil
}
