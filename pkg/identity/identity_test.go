package identity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

func TestFromClaims(t *testing.T) {
	iat := time.Now().Truncate(time.Second)
	claims := &token.Claims{
		CompanyID:   "company-1",
		CompanySlug: "acme",
		Login:       "alice",
		Role:        model.RoleModerator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "profile-1",
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(time.Hour)),
		},
	}

	id := FromClaims(claims)
	assert.Equal(t, "profile-1", id.ProfileID)
	assert.Equal(t, tenant.Company{ID: "company-1", Slug: "acme"}, id.Company)
	assert.Equal(t, "alice", id.Login)
	assert.Equal(t, model.RoleModerator, id.Role)
	assert.Equal(t, iat, id.IssuedAt)
	assert.Equal(t, iat.Add(time.Hour), id.ExpiresAt)
}

func TestFromClaims_NoTimestamps(t *testing.T) {
	id := FromClaims(&token.Claims{Role: model.RoleMember})
	assert.True(t, id.IssuedAt.IsZero())
	assert.True(t, id.ExpiresAt.IsZero())
}

func TestIdentity_WithRemoteIP(t *testing.T) {
	ip := net.ParseIP("192.168.1.100")
	id := (&Identity{Login: "alice"}).WithRemoteIP(ip)
	assert.Equal(t, ip, id.RemoteIP)
}

func TestIdentity_Can(t *testing.T) {
	tests := []struct {
		name     string
		role     model.Role
		min      model.Role
		expected bool
	}{
		{"member as member", model.RoleMember, model.RoleMember, true},
		{"member as admin", model.RoleMember, model.RoleAdmin, false},
		{"owner as admin", model.RoleOwner, model.RoleAdmin, true},
		{"moderator as moderator", model.RoleModerator, model.RoleModerator, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := &Identity{Role: tt.role}
			assert.Equal(t, tt.expected, id.Can(tt.min))
		})
	}
}

func TestIdentity_Owns(t *testing.T) {
	id := &Identity{ProfileID: "profile-1"}
	assert.True(t, id.Owns("profile-1"))
	assert.False(t, id.Owns("profile-2"))
	assert.False(t, (&Identity{}).Owns(""))
}

func TestContextGetSet(t *testing.T) {
	ctx := context.Background()

	// Initially no identity
	id, ok := Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, id)

	expected := &Identity{
		ProfileID: "profile-1",
		Company:   tenant.Company{ID: "company-1", Slug: "acme"},
		Login:     "alice",
	}
	ctx = Set(ctx, expected)

	id, ok = Get(ctx)
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, expected.ProfileID, id.ProfileID)
	assert.Equal(t, expected.Company, id.Company)
	assert.Equal(t, expected.Login, id.Login)
}
