// Package dbtest wires go-sqlmock underneath GORM for store and RPC unit
// tests.
package dbtest

import (
	"database/sql"
	"database/sql/driver"
	"regexp"
	"strconv"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockDB wraps a sqlmock connection with GORM
type MockDB struct {
	DB     *sql.DB
	Mock   sqlmock.Sqlmock
	GormDB *gorm.DB
}

// NewMockDB creates a new mock database connection
func NewMockDB() (*MockDB, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 db,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &MockDB{
		DB:     db,
		Mock:   mock,
		GormDB: gormDB,
	}, nil
}

// Close closes the mock database
func (m *MockDB) Close() error {
	return m.DB.Close()
}

// ExpectQuery expects a query matching sql literally.
func (m *MockDB) ExpectQuery(sql string) *sqlmock.ExpectedQuery {
	return m.Mock.ExpectQuery(Literal(sql))
}

// ExpectExec expects a statement matching sql literally.
func (m *MockDB) ExpectExec(sql string) *sqlmock.ExpectedExec {
	return m.Mock.ExpectExec(Literal(sql))
}

// Literal anchors sql as an exact match for sqlmock's regexp matcher, after
// rewriting GORM-style "?" placeholders into "$n".
func Literal(sql string) string {
	return "^" + regexp.QuoteMeta(Placeholders(sql)) + "$"
}

// Placeholders rewrites "?" into "$1", "$2", ... the way the postgres
// dialector does.
func Placeholders(sql string) string {
	out := make([]byte, 0, len(sql)+8)
	n := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			n++
			out = append(out, '$')
			out = append(out, strconv.Itoa(n)...)
			continue
		}
		out = append(out, sql[i])
	}
	return string(out)
}

// Rows builds sqlmock rows from column names and value tuples.
func Rows(columns []string, values ...[]interface{}) *sqlmock.Rows {
	rows := sqlmock.NewRows(columns)
	for _, v := range values {
		driverValues := make([]driver.Value, len(v))
		for i := range v {
			driverValues[i] = v[i]
		}
		rows.AddRow(driverValues...)
	}
	return rows
}
