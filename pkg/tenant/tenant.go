package tenant

import (
	"errors"
	"regexp"

	"github.com/google/uuid"
)

// ID is the primary key of a company row.
type ID string

// String returns the raw identifier.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id ID) IsZero() bool {
	return id == ""
}

// Company identifies a tenant both by its database id and its URL slug.
type Company struct {
	ID   ID     `json:"id"`
	Slug string `json:"slug"`
}

var slugRgx = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

var (
	// ErrInvalidSlug is returned for slugs that can't be used in URLs.
	ErrInvalidSlug = errors.New("company slug must be lowercase letters, digits and dashes")
	// ErrInvalidID is returned for ids that are not UUIDs.
	ErrInvalidID = errors.New("company id must be a uuid")
	// ErrMismatch is returned when a request addresses a company other than
	// the one its credentials were issued for.
	ErrMismatch = errors.New("company does not match credentials")
)

// ValidateSlug checks a company slug.
func ValidateSlug(slug string) error {
	if !slugRgx.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// ParseID validates a raw company id.
func ParseID(raw string) (ID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", ErrInvalidID
	}
	return ID(raw), nil
}

// NewID returns a fresh random company id.
func NewID() ID {
	return ID(uuid.NewString())
}

// Matches reports whether the company is addressed by slug.
func (c Company) Matches(slug string) bool {
	return c.Slug != "" && c.Slug == slug
}

// Check returns ErrMismatch unless the company is addressed by slug.
func (c Company) Check(slug string) error {
	if !c.Matches(slug) {
		return ErrMismatch
	}
	return nil
}
