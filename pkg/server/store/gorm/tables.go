package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Ensure TablesStore implements store.TablesStore
var _ store.TablesStore = (*TablesStore)(nil)

// TablesStore implements store.TablesStore using GORM
type TablesStore struct {
	db *gorm.DB
}

// NewTablesStore creates a new TablesStore
func NewTablesStore(db *gorm.DB) *TablesStore {
	return &TablesStore{db: db}
}

func (s *TablesStore) rows(ctx context.Context, stmt query.Statement) ([]store.Row, error) {
	rows := []store.Row{}
	if err := s.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error; err != nil {
		return nil, Classify(err)
	}
	return rows, nil
}

// Select returns rows matching q
func (s *TablesStore) Select(ctx context.Context, company tenant.ID, table *schema.Table, q *query.Query) ([]store.Row, error) {
	return s.rows(ctx, query.Select(table.Name, company, q))
}

// Count returns the number of rows matching q's filters
func (s *TablesStore) Count(ctx context.Context, company tenant.ID, table *schema.Table, q *query.Query) (int64, error) {
	stmt := query.Count(table.Name, company, q)
	var n int64
	if err := s.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&n).Error; err != nil {
		return 0, Classify(err)
	}
	return n, nil
}

// Insert inserts rows and returns them as stored
func (s *TablesStore) Insert(ctx context.Context, company tenant.ID, table *schema.Table, rows []store.Row) ([]store.Row, error) {
	stmt, err := query.Insert(table.Name, company, rows)
	if err != nil {
		return nil, err
	}
	return s.rows(ctx, stmt)
}

// Update applies set to rows matching filters
func (s *TablesStore) Update(ctx context.Context, company tenant.ID, table *schema.Table, set store.Row, filters []query.Filter) ([]store.Row, error) {
	stmt, err := query.Update(table.Name, company, set, filters, table.HasUpdatedAt())
	if err != nil {
		return nil, err
	}
	return s.rows(ctx, stmt)
}

// Delete removes rows matching filters
func (s *TablesStore) Delete(ctx context.Context, company tenant.ID, table *schema.Table, filters []query.Filter) ([]store.Row, error) {
	stmt, err := query.Delete(table.Name, company, filters)
	if err != nil {
		return nil, err
	}
	return s.rows(ctx, stmt)
}
