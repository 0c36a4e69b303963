package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/demandhub-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInvalidReference indicates a foreign key points at a missing row.
var ErrInvalidReference = errors.New("referenced record does not exist")

// AccountStore captures credential persistence needed by the auth layer and handlers.
type AccountStore interface {
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.Account, error)
	// FindByEmail matches the normalized (lowercased) email. Emails are unique when set.
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	GetAccount(ctx context.Context, id int64) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, id int64, patch models.AccountPatch) (models.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	// ListLegacyCredentials returns accounts still holding a plaintext password.
	ListLegacyCredentials(ctx context.Context) ([]models.LegacyCredential, error)
	// ReplaceLegacyCredential stores hash and clears the plaintext password.
	ReplaceLegacyCredential(ctx context.Context, id int64, hash string) error
}

type CompanyStore interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	CreateCompany(ctx context.Context, company models.Company) (models.Company, error)
	UpdateCompany(ctx context.Context, id int64, patch models.CompanyPatch) (models.Company, error)
	DeleteCompany(ctx context.Context, id int64) error
}

type DemandStore interface {
	ListDemands(ctx context.Context, filter models.DemandFilter) ([]models.Demand, error)
	GetDemand(ctx context.Context, id int64) (models.Demand, error)
	CreateDemand(ctx context.Context, demand models.Demand) (models.Demand, error)
	UpdateDemand(ctx context.Context, id int64, patch models.DemandPatch) (models.Demand, error)
	DeleteDemand(ctx context.Context, id int64) error

	ListComments(ctx context.Context, demandID int64) ([]models.Comment, error)
	CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error)
}

// Store is implemented by every storage adapter.
type Store interface {
	AccountStore
	CompanyStore
	DemandStore
	Ping(ctx context.Context) error
	Close() error
}
