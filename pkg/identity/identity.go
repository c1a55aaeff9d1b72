package identity

import (
	"context"
	"net"
	"time"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated identity for a request.
type Identity struct {
	// Token claims
	ProfileID string
	Company   tenant.Company
	Login     string
	Role      model.Role
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Request context
	RemoteIP net.IP
}

// FromClaims creates an Identity from verified access token claims.
func FromClaims(c *token.Claims) *Identity {
	id := &Identity{
		ProfileID: c.ProfileID(),
		Company:   c.Company(),
		Login:     c.Login,
		Role:      c.Role,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// Can reports whether the identity holds at least role min.
func (i *Identity) Can(min model.Role) bool {
	return i.Role.AtLeast(min)
}

// Owns reports whether profileID is the identity's own profile.
func (i *Identity) Owns(profileID string) bool {
	return profileID != "" && profileID == i.ProfileID
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
