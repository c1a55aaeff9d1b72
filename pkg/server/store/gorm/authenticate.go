package gorm

import (
	"context"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Ensure AuthenticateStore implements store.AuthenticateStore
var _ store.AuthenticateStore = (*AuthenticateStore)(nil)

// AuthenticateStore implements store.AuthenticateStore using GORM
type AuthenticateStore struct {
	db *gorm.DB
}

// NewAuthenticateStore creates a new AuthenticateStore
func NewAuthenticateStore(db *gorm.DB) *AuthenticateStore {
	return &AuthenticateStore{db: db}
}

type credentialRow struct {
	ProfileID    string         `gorm:"column:profile_id"`
	CompanyID    string         `gorm:"column:company_id"`
	CompanySlug  string         `gorm:"column:company_slug"`
	Login        string         `gorm:"column:login"`
	DisplayName  string         `gorm:"column:display_name"`
	Role         string         `gorm:"column:role"`
	APIKeyHash   []byte         `gorm:"column:api_key_hash"`
	RestrictedTo pq.StringArray `gorm:"column:restricted_to"`
	Expiration   *time.Time     `gorm:"column:expiration"`
}

const credentialQuery = `SELECT p.id AS profile_id, c.id AS company_id, c.slug AS company_slug, ` +
	`p.login, p.display_name, p.role, cr.api_key_hash, cr.restricted_to, cr.expiration ` +
	`FROM credentials cr JOIN profiles p ON p.id = cr.profile_id JOIN companies c ON c.id = p.company_id ` +
	`WHERE c.slug = ? AND p.login = ?`

// GetCredential retrieves the credential of a login within a company
func (s *AuthenticateStore) GetCredential(ctx context.Context, companySlug, login string) (*store.Credential, error) {
	var rows []credentialRow
	if err := s.db.WithContext(ctx).Raw(credentialQuery, companySlug, login).Scan(&rows).Error; err != nil {
		return nil, Classify(err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	row := rows[0]
	return &store.Credential{
		Profile: model.Profile{
			ID:          row.ProfileID,
			CompanyID:   row.CompanyID,
			Login:       row.Login,
			DisplayName: row.DisplayName,
			Role:        model.Role(row.Role),
		},
		Company:      tenant.Company{ID: tenant.ID(row.CompanyID), Slug: row.CompanySlug},
		APIKeyHash:   row.APIKeyHash,
		RestrictedTo: row.RestrictedTo,
		Expiration:   row.Expiration,
	}, nil
}

// ValidateAPIKey validates an API key against stored credentials
func (s *AuthenticateStore) ValidateAPIKey(credential *store.Credential, apiKey []byte) bool {
	return model.CompareAPIKey(credential.APIKeyHash, apiKey)
}

// RotateAPIKey generates and stores a new API key for a profile
func (s *AuthenticateStore) RotateAPIKey(ctx context.Context, company tenant.ID, login string) ([]byte, error) {
	newAPIKey, err := model.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	hash, err := model.HashAPIKey(newAPIKey)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Exec(
		`UPDATE credentials SET api_key_hash = ?, updated_at = now() `+
			`WHERE profile_id = (SELECT id FROM profiles WHERE company_id = ? AND login = ?)`,
		hash, company.String(), login)
	if tx.Error != nil {
		return nil, Classify(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return newAPIKey, nil
}
