package store

import (
	"context"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// CompaniesStore abstracts tenant provisioning
type CompaniesStore interface {
	// ListCompanies returns all companies ordered by slug
	ListCompanies(ctx context.Context) ([]model.Company, error)

	// GetCompany returns the company with the given slug.
	// Returns ErrNotFound if it doesn't exist.
	GetCompany(ctx context.Context, slug string) (*model.Company, error)

	// CreateCompany creates a company and its owner profile, returning the
	// owner's API key. Returns ErrConflict if the slug is taken.
	CreateCompany(ctx context.Context, slug, name, ownerLogin string) (*model.Company, []byte, error)

	// DeleteCompany deletes a company and all its data
	DeleteCompany(ctx context.Context, slug string) error

	// CreateProfile adds a profile with a fresh API key to a company
	CreateProfile(ctx context.Context, company tenant.ID, login string, role model.Role) (*model.Profile, []byte, error)
}
