package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

var acme = tenant.Company{ID: "6f0e4a52-8d7a-4b53-a6a0-1f4f0c9a1e11", Slug: "acme"}

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(testKey, time.Hour)
	require.NoError(t, err)
	return issuer
}

func TestNewIssuer_ShortKey(t *testing.T) {
	_, err := NewIssuer([]byte("short"), time.Hour)
	assert.ErrorIs(t, err, ErrKeyTooShort)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t)

	raw, exp, err := issuer.Issue("profile-1", acme, "alice", model.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "profile-1", claims.ProfileID())
	assert.Equal(t, acme, claims.Company())
	assert.Equal(t, "alice", claims.Login)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestVerify_Expired(t *testing.T) {
	issuer := newTestIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err := issuer.Issue("profile-1", acme, "alice", model.RoleMember)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_WrongKey(t *testing.T) {
	issuer := newTestIssuer(t)
	raw, _, err := issuer.Issue("profile-1", acme, "alice", model.RoleMember)
	require.NoError(t, err)

	other, err := NewIssuer([]byte("fedcba9876543210fedcba9876543210"), time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_WrongAlgorithm(t *testing.T) {
	issuer := newTestIssuer(t)
	claims := Claims{
		CompanyID:   acme.ID.String(),
		CompanySlug: acme.Slug,
		Role:        model.RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   "profile-1",
			Audience:  jwt.ClaimStrings{accessAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testKey)
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_MissingClaims(t *testing.T) {
	issuer := newTestIssuer(t)
	raw, _, err := issuer.Issue("profile-1", acme, "alice", model.Role("root"))
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSignedObjectTokens(t *testing.T) {
	issuer := newTestIssuer(t)

	raw, exp, err := issuer.SignObject(acme.ID, "avatars", "alice/me.png", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	assert.NoError(t, issuer.VerifyObject(raw, acme.ID, "avatars", "alice/me.png"))
	assert.ErrorIs(t, issuer.VerifyObject(raw, acme.ID, "avatars", "bob/me.png"), ErrInvalid)
	assert.ErrorIs(t, issuer.VerifyObject(raw, acme.ID, "branding", "alice/me.png"), ErrInvalid)
	assert.ErrorIs(t, issuer.VerifyObject(raw, "other", "avatars", "alice/me.png"), ErrInvalid)

	t.Run("object token is not an access token", func(t *testing.T) {
		_, err := issuer.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("access token is not an object token", func(t *testing.T) {
		access, _, err := issuer.Issue("profile-1", acme, "alice", model.RoleMember)
		require.NoError(t, err)
		assert.ErrorIs(t, issuer.VerifyObject(access, acme.ID, "avatars", "alice/me.png"), ErrInvalid)
	})
}

func TestDecodeKey(t *testing.T) {
	key, err := DecodeKey(base64.StdEncoding.EncodeToString(testKey))
	require.NoError(t, err)
	assert.Equal(t, testKey, key)

	_, err = DecodeKey("not base64!")
	assert.Error(t, err)

	_, err = DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrKeyTooShort)
}

func TestKeyFromEnv(t *testing.T) {
	t.Setenv(SigningKeyEnv, "")
	_, err := KeyFromEnv()
	assert.Error(t, err)

	generated, err := GenerateKey()
	require.NoError(t, err)
	t.Setenv(SigningKeyEnv, generated)
	key, err := KeyFromEnv()
	require.NoError(t, err)
	assert.Len(t, key, MinKeySize)
}
