package query

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

const acme = tenant.ID("c0000000-0000-0000-0000-000000000001")

func TestSelect(t *testing.T) {
	q := &Query{
		Columns: []string{"id", "title"},
		Filters: []Filter{
			{Column: "space_id", Op: Eq, Value: "s1"},
			{Column: "title", Op: ILike, Value: "*go*"},
			{Column: "author_id", Op: In, Negate: true, Values: []string{"a", "b"}},
			{Column: "published", Op: Is, Value: "true"},
		},
		Orders: []Order{{Column: "created_at", Desc: true, Nulls: NullsLast}, {Column: "id"}},
		Limit:  20,
		Offset: 40,
	}

	stmt := Select("posts", acme, q)
	assert.Equal(t,
		`SELECT "id", "title" FROM "posts" WHERE "company_id" = ? AND "space_id" = ? AND "title" ILIKE ? `+
			`AND NOT ("author_id" IN (?, ?)) AND "published" IS TRUE `+
			`ORDER BY "created_at" DESC NULLS LAST, "id" ASC LIMIT 20 OFFSET 40`,
		stmt.SQL)
	assert.Equal(t, []interface{}{acme.String(), "s1", "%go%", "a", "b"}, stmt.Args)
}

func TestSelect_AllColumnsEmptyIn(t *testing.T) {
	stmt := Select("levels", acme, &Query{Filters: []Filter{{Column: "id", Op: In, Values: []string{}}}})
	assert.Equal(t, `SELECT * FROM "levels" WHERE "company_id" = ? AND FALSE`, stmt.SQL)
	assert.Equal(t, []interface{}{acme.String()}, stmt.Args)
}

func TestCount(t *testing.T) {
	stmt := Count("posts", acme, &Query{Filters: []Filter{{Column: "pinned", Op: Is, Value: "null", Negate: true}}, Limit: 5})
	assert.Equal(t, `SELECT count(*) FROM "posts" WHERE "company_id" = ? AND NOT ("pinned" IS NULL)`, stmt.SQL)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"posts"`, Quote("posts"))
	assert.Equal(t, `"a""b"`, Quote(`a"b`))
}

func TestInsert(t *testing.T) {
	rows := []map[string]interface{}{
		{"id": "p1", "title": "Hello", "company_id": "other"},
		{"title": "World", "pinned": true},
	}
	stmt, err := Insert("posts", acme, rows)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "posts" ("company_id", "id", "pinned", "title") VALUES (?, ?, DEFAULT, ?), (?, DEFAULT, ?, ?) RETURNING *`,
		stmt.SQL)
	assert.Equal(t, []interface{}{acme.String(), "p1", "Hello", acme.String(), true, "World"}, stmt.Args)

	_, err = Insert("posts", acme, nil)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUpdate(t *testing.T) {
	stmt, err := Update("posts", acme,
		map[string]interface{}{"title": "New", "pinned": false},
		[]Filter{{Column: "id", Op: Eq, Value: "p1"}}, true)
	require.NoError(t, err)
	assert.Equal(t,
		`UPDATE "posts" SET "pinned" = ?, "title" = ?, "updated_at" = now() WHERE "company_id" = ? AND "id" = ? RETURNING *`,
		stmt.SQL)
	assert.Equal(t, []interface{}{false, "New", acme.String(), "p1"}, stmt.Args)

	_, err = Update("posts", acme, map[string]interface{}{"title": "x"}, nil, false)
	assert.ErrorIs(t, err, ErrUnfiltered)

	_, err = Update("posts", acme, map[string]interface{}{}, []Filter{{Column: "id", Op: Eq, Value: "p1"}}, false)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestDelete(t *testing.T) {
	stmt, err := Delete("comments", acme, []Filter{{Column: "post_id", Op: Eq, Value: "p1"}})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "comments" WHERE "company_id" = ? AND "post_id" = ? RETURNING *`, stmt.SQL)
	assert.Equal(t, []interface{}{acme.String(), "p1"}, stmt.Args)

	_, err = Delete("comments", acme, nil)
	assert.ErrorIs(t, err, ErrUnfiltered)
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		in       interface{}
		expected interface{}
	}{
		{nil, nil},
		{"x", "x"},
		{true, true},
		{json.Number("12.50"), "12.50"},
		{float64(3), "3"},
		{42, "42"},
		{int64(7), "7"},
		{map[string]interface{}{"a": "b"}, `{"a":"b"}`},
		{[]interface{}{"a", "b"}, `["a","b"]`},
	}
	for _, tt := range tests {
		got, err := NormalizeValue(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}

	_, err := NormalizeValue(struct{}{})
	assert.ErrorIs(t, err, ErrInvalidValue)
}
