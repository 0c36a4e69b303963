package models

import "time"

// Account captures application-facing fields for an admin or user identity.
type Account struct {
	ID           int64     `json:"id"`
	Identifier   string    `json:"username"`
	DisplayName  string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LegacyCredential is a stored plaintext password awaiting migration to a hash.
type LegacyCredential struct {
	AccountID int64
	Password  string
}

// AccountPatch holds optional fields for a partial update. Role is deliberately absent.
type AccountPatch struct {
	DisplayName  *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.DisplayName == nil && p.Email == nil && p.PasswordHash == nil
}
