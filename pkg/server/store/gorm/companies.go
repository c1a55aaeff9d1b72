package gorm

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Ensure CompaniesStore implements store.CompaniesStore
var _ store.CompaniesStore = (*CompaniesStore)(nil)

// CompaniesStore implements store.CompaniesStore using GORM
type CompaniesStore struct {
	db *gorm.DB
}

// NewCompaniesStore creates a new CompaniesStore
func NewCompaniesStore(db *gorm.DB) *CompaniesStore {
	return &CompaniesStore{db: db}
}

// ListCompanies returns all companies ordered by slug
func (s *CompaniesStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := s.db.WithContext(ctx).
		Raw(`SELECT id, slug, name, created_at FROM companies ORDER BY slug`).
		Scan(&companies).Error
	if err != nil {
		return nil, Classify(err)
	}
	return companies, nil
}

// GetCompany returns the company with the given slug
func (s *CompaniesStore) GetCompany(ctx context.Context, slug string) (*model.Company, error) {
	var companies []model.Company
	err := s.db.WithContext(ctx).
		Raw(`SELECT id, slug, name, created_at FROM companies WHERE slug = ?`, slug).
		Scan(&companies).Error
	if err != nil {
		return nil, Classify(err)
	}
	if len(companies) == 0 {
		return nil, store.ErrNotFound
	}
	return &companies[0], nil
}

// CreateCompany creates a company with an owner profile
func (s *CompaniesStore) CreateCompany(ctx context.Context, slug, name, ownerLogin string) (*model.Company, []byte, error) {
	if err := tenant.ValidateSlug(slug); err != nil {
		return nil, nil, err
	}
	company := &model.Company{ID: uuid.NewString(), Slug: slug, Name: name}

	var apiKey []byte
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO companies (id, slug, name) VALUES (?, ?, ?)`,
			company.ID, company.Slug, company.Name).Error; err != nil {
			return Classify(err)
		}
		var err error
		_, apiKey, err = createProfile(tx, tenant.ID(company.ID), ownerLogin, model.RoleOwner)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return company, apiKey, nil
}

// DeleteCompany deletes a company. Tenant rows go with it through ON DELETE
// CASCADE.
func (s *CompaniesStore) DeleteCompany(ctx context.Context, slug string) error {
	tx := s.db.WithContext(ctx).Exec(`DELETE FROM companies WHERE slug = ?`, slug)
	if tx.Error != nil {
		return Classify(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateProfile adds a profile with a fresh API key to a company
func (s *CompaniesStore) CreateProfile(ctx context.Context, company tenant.ID, login string, role model.Role) (*model.Profile, []byte, error) {
	var profile *model.Profile
	var apiKey []byte
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, apiKey, err = createProfile(tx, company, login, role)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return profile, apiKey, nil
}

func createProfile(tx *gorm.DB, company tenant.ID, login string, role model.Role) (*model.Profile, []byte, error) {
	if !role.Valid() {
		return nil, nil, model.ErrUnknownRole
	}
	apiKey, err := model.GenerateAPIKey()
	if err != nil {
		return nil, nil, err
	}
	hash, err := model.HashAPIKey(apiKey)
	if err != nil {
		return nil, nil, err
	}

	profile := &model.Profile{
		ID:          uuid.NewString(),
		CompanyID:   company.String(),
		Login:       login,
		DisplayName: login,
		Role:        role,
	}
	if err := tx.Exec(`INSERT INTO profiles (id, company_id, login, display_name, role) VALUES (?, ?, ?, ?, ?)`,
		profile.ID, profile.CompanyID, profile.Login, profile.DisplayName, string(profile.Role)).Error; err != nil {
		return nil, nil, Classify(err)
	}
	if err := tx.Exec(`INSERT INTO credentials (profile_id, api_key_hash) VALUES (?, ?)`,
		profile.ID, hash).Error; err != nil {
		return nil, nil, Classify(err)
	}
	return profile, apiKey, nil
}
