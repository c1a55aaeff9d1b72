package seed

import (
	"context"
	"errors"

	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// ErrNotFound is returned by Store lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Row is a set of column values.
type Row = map[string]interface{}

// Store abstracts the storage operations for seeding. Every method except
// CompanyID is scoped to one company.
type Store interface {
	// Transaction runs fn against a transactional Store. Returning an error
	// rolls everything back.
	Transaction(ctx context.Context, fn func(Store) error) error

	// CompanyID resolves a company slug.
	CompanyID(ctx context.Context, slug string) (tenant.ID, error)

	// Find returns the id of the row in table whose columns equal key.
	Find(ctx context.Context, company tenant.ID, table string, key Row) (string, error)

	// Insert adds a row. The row carries its own id.
	Insert(ctx context.Context, company tenant.ID, table string, row Row) error

	// Update sets columns on the row with the given id.
	Update(ctx context.Context, company tenant.ID, table, id string, set Row) error
}
