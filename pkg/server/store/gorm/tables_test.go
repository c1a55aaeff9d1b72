package gorm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/dbtest"
	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

const companyID = tenant.ID("5f0c7c1e-8d5b-4c0a-9a51-0c2f1d9e6a11")

func postsTable(t *testing.T) *schema.Table {
	table, err := schema.Lookup("posts")
	require.NoError(t, err)
	return table
}

func TestTablesStore_Select(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	q := &query.Query{
		Columns: []string{"id", "title"},
		Filters: []query.Filter{{Column: "space_id", Op: query.Eq, Value: "s1"}},
		Orders:  []query.Order{{Column: "created_at", Desc: true}},
		Limit:   10,
	}
	stmt := query.Select("posts", companyID, q)
	mockDB.ExpectQuery(stmt.SQL).
		WithArgs(string(companyID), "s1").
		WillReturnRows(dbtest.Rows([]string{"id", "title"},
			[]interface{}{"p1", "Hello"},
			[]interface{}{"p2", "World"},
		))

	s := NewTablesStore(mockDB.GormDB)
	rows, err := s.Select(context.Background(), companyID, postsTable(t), q)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p1", rows[0]["id"])
	assert.Equal(t, "World", rows[1]["title"])
	assert.NoError(t, mockDB.Mock.ExpectationsWereMet())
}

func TestTablesStore_SelectEmpty(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	q := &query.Query{}
	mockDB.ExpectQuery(query.Select("posts", companyID, q).SQL).
		WithArgs(string(companyID)).
		WillReturnRows(dbtest.Rows([]string{"id"}))

	rows, err := NewTablesStore(mockDB.GormDB).Select(context.Background(), companyID, postsTable(t), q)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestTablesStore_Count(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	q := &query.Query{Filters: []query.Filter{{Column: "pinned", Op: query.Is, Value: "true"}}}
	mockDB.ExpectQuery(query.Count("posts", companyID, q).SQL).
		WithArgs(string(companyID)).
		WillReturnRows(dbtest.Rows([]string{"count"}, []interface{}{int64(42)}))

	n, err := NewTablesStore(mockDB.GormDB).Count(context.Background(), companyID, postsTable(t), q)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestTablesStore_Insert(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	rows := []store.Row{{"id": "p1", "title": "Hello", "space_id": "s1", "author_id": "a1"}}
	stmt, err := query.Insert("posts", companyID, rows)
	require.NoError(t, err)
	mockDB.ExpectQuery(stmt.SQL).
		WithArgs(string(companyID), "a1", "p1", "s1", "Hello").
		WillReturnRows(dbtest.Rows([]string{"id", "company_id", "title"},
			[]interface{}{"p1", string(companyID), "Hello"},
		))

	out, err := NewTablesStore(mockDB.GormDB).Insert(context.Background(), companyID, postsTable(t), rows)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, string(companyID), out[0]["company_id"])
	assert.NoError(t, mockDB.Mock.ExpectationsWereMet())
}

func TestTablesStore_InsertConflict(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	rows := []store.Row{{"id": "p1"}}
	stmt, err := query.Insert("posts", companyID, rows)
	require.NoError(t, err)
	mockDB.ExpectQuery(stmt.SQL).
		WithArgs(string(companyID), "p1").
		WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (id)=(p1) already exists."})

	_, err = NewTablesStore(mockDB.GormDB).Insert(context.Background(), companyID, postsTable(t), rows)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestTablesStore_Update(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	filters := []query.Filter{{Column: "id", Op: query.Eq, Value: "p1"}}
	set := store.Row{"title": "Edited"}
	stmt, err := query.Update("posts", companyID, set, filters, true)
	require.NoError(t, err)
	mockDB.ExpectQuery(stmt.SQL).
		WithArgs("Edited", string(companyID), "p1").
		WillReturnRows(dbtest.Rows([]string{"id", "title"}, []interface{}{"p1", "Edited"}))

	out, err := NewTablesStore(mockDB.GormDB).Update(context.Background(), companyID, postsTable(t), set, filters)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Edited", out[0]["title"])
}

func TestTablesStore_UnfilteredWrites(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	s := NewTablesStore(mockDB.GormDB)
	_, err = s.Update(context.Background(), companyID, postsTable(t), store.Row{"title": "x"}, nil)
	assert.ErrorIs(t, err, query.ErrUnfiltered)

	_, err = s.Delete(context.Background(), companyID, postsTable(t), nil)
	assert.ErrorIs(t, err, query.ErrUnfiltered)

	assert.NoError(t, mockDB.Mock.ExpectationsWereMet())
}

func TestTablesStore_Delete(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	filters := []query.Filter{{Column: "id", Op: query.In, Values: []string{"p1", "p2"}}}
	stmt, err := query.Delete("posts", companyID, filters)
	require.NoError(t, err)
	mockDB.ExpectQuery(stmt.SQL).
		WithArgs(string(companyID), "p1", "p2").
		WillReturnRows(dbtest.Rows([]string{"id"}, []interface{}{"p1"}, []interface{}{"p2"}))

	out, err := NewTablesStore(mockDB.GormDB).Delete(context.Background(), companyID, postsTable(t), filters)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"23505", store.ErrConflict},
		{"23503", store.ErrInvalidReference},
		{"23502", store.ErrInvalidInput},
		{"22P02", store.ErrInvalidInput},
		{"42703", store.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := Classify(&pgconn.PgError{Code: tt.code})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Nil(t, Classify(nil))
	assert.Equal(t, sqlmock.ErrCancelled, Classify(sqlmock.ErrCancelled))
}
