package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

const (
	// SigningKeyEnv names the environment variable holding the signing key.
	SigningKeyEnv = "COMMUNITY_SIGNING_KEY"
	// MinKeySize is the minimum signing key length in bytes.
	MinKeySize = 32

	issuerName      = "community"
	accessAudience  = "api"
	storageAudience = "storage"
)

var (
	// ErrInvalid indicates a token that failed parsing or verification.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired indicates a well-formed token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrKeyTooShort is returned for signing keys under MinKeySize bytes.
	ErrKeyTooShort = fmt.Errorf("signing key must be at least %d bytes", MinKeySize)
)

// Claims are the access token claims.
type Claims struct {
	CompanyID   string     `json:"cid"`
	CompanySlug string     `json:"cslug"`
	Login       string     `json:"login"`
	Role        model.Role `json:"role"`
	jwt.RegisteredClaims
}

// ProfileID returns the subject.
func (c *Claims) ProfileID() string {
	return c.Subject
}

// Company returns the tenant the token was issued for.
func (c *Claims) Company() tenant.Company {
	return tenant.Company{ID: tenant.ID(c.CompanyID), Slug: c.CompanySlug}
}

// ObjectClaims are the claims of a signed storage URL.
type ObjectClaims struct {
	CompanyID string `json:"cid"`
	Bucket    string `json:"bucket"`
	Path      string `json:"path"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a single HMAC key.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer creates an issuer. ttl is the lifetime of access tokens.
func NewIssuer(key []byte, ttl time.Duration) (*Issuer, error) {
	if len(key) < MinKeySize {
		return nil, ErrKeyTooShort
	}
	return &Issuer{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the access token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs an access token for the given claims and returns it with its
// expiry. Registered claims other than the subject are filled in.
func (i *Issuer) Issue(profileID string, company tenant.Company, login string, role model.Role) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		CompanyID:   company.ID.String(),
		CompanySlug: company.Slug,
		Login:       login,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   profileID,
			Audience:  jwt.ClaimStrings{accessAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses and validates an access token.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	if err := i.parse(raw, claims, accessAudience); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.CompanyID == "" || claims.CompanySlug == "" || !claims.Role.Valid() {
		return nil, ErrInvalid
	}
	return claims, nil
}

// SignObject creates a signed-URL token for one object.
func (i *Issuer) SignObject(company tenant.ID, bucket, path string, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(ttl)
	claims := ObjectClaims{
		CompanyID: company.String(),
		Bucket:    bucket,
		Path:      path,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Audience:  jwt.ClaimStrings{storageAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign object token: %w", err)
	}
	return signed, exp, nil
}

// VerifyObject validates a signed-URL token against the object it is being
// used for.
func (i *Issuer) VerifyObject(raw string, company tenant.ID, bucket, path string) error {
	claims := &ObjectClaims{}
	if err := i.parse(raw, claims, storageAudience); err != nil {
		return err
	}
	if claims.CompanyID != company.String() || claims.Bucket != bucket || claims.Path != path {
		return ErrInvalid
	}
	return nil
}

func (i *Issuer) parse(raw string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// DecodeKey decodes a base64 signing key and checks its length.
func DecodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("signing key is not valid base64: %w", err)
	}
	if len(key) < MinKeySize {
		return nil, ErrKeyTooShort
	}
	return key, nil
}

// KeyFromEnv reads the signing key from COMMUNITY_SIGNING_KEY.
func KeyFromEnv() ([]byte, error) {
	encoded := os.Getenv(SigningKeyEnv)
	if encoded == "" {
		return nil, fmt.Errorf("%s environment variable is required", SigningKeyEnv)
	}
	return DecodeKey(encoded)
}

// GenerateKey returns a new random base64 signing key.
func GenerateKey() (string, error) {
	key := make([]byte, MinKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
