package models

import "time"

type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Document  *string   `json:"document"`
	CreatedAt time.Time `json:"created_at"`
}

// CompanyPatch holds optional fields for a partial update.
type CompanyPatch struct {
	Name     *string
	Document *string
}
