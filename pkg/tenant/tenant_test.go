package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"acme", true},
		{"acme-academy", true},
		{"a1", true},
		{"x", true},
		{"", false},
		{"Acme", false},
		{"-acme", false},
		{"acme-", false},
		{"acme/academy", false},
		{"acme academy", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSlug)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("acme")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestCompanyCheck(t *testing.T) {
	c := Company{ID: NewID(), Slug: "acme"}

	assert.NoError(t, c.Check("acme"))
	assert.ErrorIs(t, c.Check("globex"), ErrMismatch)
	assert.ErrorIs(t, Company{}.Check(""), ErrMismatch)
}
