package store

import (
	"context"

	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Row is one table row keyed by column name.
type Row = map[string]interface{}

// TablesStore runs table API queries. Callers authorize and validate the
// query before calling; the store only scopes it to the company.
type TablesStore interface {
	// Select returns rows matching q.
	Select(ctx context.Context, company tenant.ID, table *schema.Table, q *query.Query) ([]Row, error)

	// Count returns the number of rows matching q's filters.
	Count(ctx context.Context, company tenant.ID, table *schema.Table, q *query.Query) (int64, error)

	// Insert inserts rows and returns them as stored.
	Insert(ctx context.Context, company tenant.ID, table *schema.Table, rows []Row) ([]Row, error)

	// Update applies set to rows matching filters and returns them.
	// Returns query.ErrUnfiltered when filters is empty.
	Update(ctx context.Context, company tenant.ID, table *schema.Table, set Row, filters []query.Filter) ([]Row, error)

	// Delete removes rows matching filters and returns them.
	// Returns query.ErrUnfiltered when filters is empty.
	Delete(ctx context.Context, company tenant.ID, table *schema.Table, filters []query.Filter) ([]Row, error)
}
