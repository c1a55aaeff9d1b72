package store

import (
	"context"
	"time"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Credential joins a profile with its company and stored API key hash
type Credential struct {
	Profile      model.Profile
	Company      tenant.Company
	APIKeyHash   []byte
	RestrictedTo []string
	Expiration   *time.Time
}

// IsExpired reports whether the credential has an expiration in the past
func (c *Credential) IsExpired() bool {
	if c.Expiration == nil {
		return false
	}
	return time.Now().After(*c.Expiration)
}

// AuthenticateStore abstracts authentication storage operations
type AuthenticateStore interface {
	// GetCredential retrieves the credential of a login within a company.
	// Returns ErrNotFound if the company or login doesn't exist.
	GetCredential(ctx context.Context, companySlug, login string) (*Credential, error)

	// ValidateAPIKey validates an API key against stored credentials
	ValidateAPIKey(credential *Credential, apiKey []byte) bool

	// RotateAPIKey generates and stores a new API key for a profile
	RotateAPIKey(ctx context.Context, company tenant.ID, login string) ([]byte, error)
}
