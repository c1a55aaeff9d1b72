package seed

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	storegorm "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Ensure GormStore implements Store
var _ Store = (*GormStore)(nil)

// GormStore implements Store with GORM. Table and column names are checked
// against the schema registry before they reach SQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transaction wraps operations in a database transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// CompanyID resolves a company slug.
func (s *GormStore) CompanyID(ctx context.Context, slug string) (tenant.ID, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Raw(`SELECT id FROM companies WHERE slug = ?`, slug).Scan(&ids).Error; err != nil {
		return "", storegorm.Classify(err)
	}
	if len(ids) == 0 {
		return "", ErrNotFound
	}
	return tenant.ID(ids[0]), nil
}

// Find returns the id of the first row matching key.
func (s *GormStore) Find(ctx context.Context, company tenant.ID, table string, key Row) (string, error) {
	columns, err := checkColumns(table, key)
	if err != nil {
		return "", err
	}
	where := []string{`"company_id" = ?`}
	args := []interface{}{company.String()}
	for _, c := range columns {
		where = append(where, query.Quote(c)+" = ?")
		args = append(args, key[c])
	}
	sql := `SELECT "id" FROM ` + query.Quote(table) + ` WHERE ` + strings.Join(where, " AND ") + ` LIMIT 1`

	var ids []string
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&ids).Error; err != nil {
		return "", storegorm.Classify(err)
	}
	if len(ids) == 0 {
		return "", ErrNotFound
	}
	return ids[0], nil
}

// Insert adds row to table under company.
func (s *GormStore) Insert(ctx context.Context, company tenant.ID, table string, row Row) error {
	columns, err := checkColumns(table, row)
	if err != nil {
		return err
	}
	quoted := []string{`"company_id"`}
	args := []interface{}{company.String()}
	for _, c := range columns {
		quoted = append(quoted, query.Quote(c))
		args = append(args, row[c])
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(quoted)), ", ")
	sql := `INSERT INTO ` + query.Quote(table) + ` (` + strings.Join(quoted, ", ") + `) VALUES (` + placeholders + `)`
	return storegorm.Classify(s.db.WithContext(ctx).Exec(sql, args...).Error)
}

// Update sets columns on one row.
func (s *GormStore) Update(ctx context.Context, company tenant.ID, table, id string, set Row) error {
	columns, err := checkColumns(table, set)
	if err != nil {
		return err
	}
	assignments := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+2)
	for _, c := range columns {
		assignments = append(assignments, query.Quote(c)+" = ?")
		args = append(args, set[c])
	}
	args = append(args, company.String(), id)
	sql := `UPDATE ` + query.Quote(table) + ` SET ` + strings.Join(assignments, ", ") +
		` WHERE "company_id" = ? AND "id" = ?`
	return storegorm.Classify(s.db.WithContext(ctx).Exec(sql, args...).Error)
}

// checkColumns returns the row's columns sorted, after making sure the table
// and every column exist.
func checkColumns(table string, row Row) ([]string, error) {
	t, err := schema.Lookup(table)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(row))
	for c := range row {
		if c == "company_id" || !t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s.%s", schema.ErrUnknownColumn, table, c)
		}
		columns = append(columns, c)
	}
	sort.Strings(columns)
	return columns, nil
}
