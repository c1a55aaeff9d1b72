package endpoints

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
)

func TestTables_Select(t *testing.T) {
	ts := newTestServer(t)
	rows := []store.Row{
		{"id": "p1", "title": "Hello"},
		{"id": "p2", "title": "World"},
	}
	ts.tables.On("Select", mock.Anything, acme.ID, "posts", mock.MatchedBy(func(q *query.Query) bool {
		return len(q.Filters) == 1 && q.Filters[0].Column == "published" && q.Limit == 50
	})).Return(rows, nil)

	rec := ts.do(t, "GET", "/rest/acme/posts?published=eq.true", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusOK)

	var got []store.Row
	decodeBody(t, rec, &got)
	assert.Len(t, got, 2)
	assert.Empty(t, rec.Header().Get(query.HeaderContentRange))
	assert.Contains(t, ts.auditLog.String(), "table-read")
	assert.Empty(t, ts.published.Changes())
	ts.tables.AssertExpectations(t)
}

func TestTables_Select_RangeAndCount(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Select", mock.Anything, acme.ID, "posts", mock.MatchedBy(func(q *query.Query) bool {
		return q.Offset == 10 && q.Limit == 10 && q.Count
	})).Return([]store.Row{{"id": "p1"}, {"id": "p2"}}, nil)
	ts.tables.On("Count", mock.Anything, acme.ID, "posts", mock.Anything).Return(int64(42), nil)

	rec := ts.do(t, "GET", "/rest/acme/posts", ts.tokenFor(t, alice), "",
		query.HeaderRange, "10-19",
		query.HeaderPrefer, query.PreferCountExact,
	)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "10-11/42", rec.Header().Get(query.HeaderContentRange))
}

func TestTables_Select_LimitCapped(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Select", mock.Anything, acme.ID, "spaces", mock.MatchedBy(func(q *query.Query) bool {
		return q.Limit == 100
	})).Return([]store.Row{}, nil)

	rec := ts.do(t, "GET", "/rest/acme/spaces?limit=5000", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusOK)
	ts.tables.AssertExpectations(t)
}

func TestTables_Select_Errors(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, alice)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown table", "/rest/acme/secrets", http.StatusNotFound},
		{"unknown column", "/rest/acme/posts?nope=eq.1", http.StatusBadRequest},
		{"unknown operator", "/rest/acme/posts?title=approx.x", http.StatusBadRequest},
		{"other company", "/rest/globex/posts", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "GET", tt.target, token, "")
			requireStatus(t, rec, tt.status)
		})
	}
	ts.tables.AssertNotCalled(t, "Select", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTables_Select_RequiresToken(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/rest/acme/posts", "", "")
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestTables_Insert_OwnRow(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Insert", mock.Anything, acme.ID, "posts", mock.MatchedBy(func(rows []store.Row) bool {
		if len(rows) != 1 {
			return false
		}
		row := rows[0]
		html, _ := row["body_html"].(string)
		id, _ := row["id"].(string)
		return row["author_id"] == alice.ID && strings.Contains(html, "<strong>bold</strong>") && id != ""
	})).Return([]store.Row{{"id": "p1", "author_id": alice.ID}}, nil)

	rec := ts.do(t, "POST", "/rest/acme/posts", ts.tokenFor(t, alice),
		`{"space_id":"s1","title":"Hi","body":"**bold**"}`)
	requireStatus(t, rec, http.StatusCreated)

	changes := ts.published.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, "posts", changes[0].Table)
	assert.Equal(t, events.OpInsert, changes[0].Op)
	assert.Equal(t, []string{"p1"}, changes[0].IDs)
	assert.Equal(t, "acme", changes[0].Slug)
	assert.Contains(t, ts.auditLog.String(), "table-write")
	ts.tables.AssertExpectations(t)
}

func TestTables_Insert_Array(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Insert", mock.Anything, acme.ID, "spaces", mock.MatchedBy(func(rows []store.Row) bool {
		return len(rows) == 2
	})).Return([]store.Row{{"id": "s1"}, {"id": "s2"}}, nil)

	rec := ts.do(t, "POST", "/rest/acme/spaces", ts.tokenFor(t, admin),
		`[{"name":"General"},{"name":"Random"}]`)
	requireStatus(t, rec, http.StatusCreated)

	changes := ts.published.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, []string{"s1", "s2"}, changes[0].IDs)
}

func TestTables_Insert_Rejected(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		profile testProfile
		table   string
		body    string
		status  int
	}{
		{"someone else's post", alice, "posts", `{"title":"x","author_id":"` + mod.ID + `"}`, http.StatusForbidden},
		{"moderator-only column", alice, "posts", `{"title":"x","pinned":true}`, http.StatusForbidden},
		{"tenant column", admin, "spaces", `{"name":"x","company_id":"other"}`, http.StatusBadRequest},
		{"generated column", mod, "posts", `{"title":"x","body_html":"<b>x</b>"}`, http.StatusBadRequest},
		{"read-only table", admin, "lesson_progress", `{"lesson_id":"l1"}`, http.StatusForbidden},
		{"write role", alice, "spaces", `{"name":"x"}`, http.StatusForbidden},
		{"empty body", admin, "spaces", ``, http.StatusBadRequest},
		{"empty array", admin, "spaces", `[]`, http.StatusBadRequest},
		{"invalid json", admin, "spaces", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "POST", "/rest/acme/"+tt.table, ts.tokenFor(t, tt.profile), tt.body)
			requireStatus(t, rec, tt.status)
		})
	}
	ts.tables.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, ts.published.Changes())
}

func TestTables_Insert_StoreConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Insert", mock.Anything, acme.ID, "spaces", mock.Anything).Return(nil, store.ErrConflict)

	rec := ts.do(t, "POST", "/rest/acme/spaces", ts.tokenFor(t, admin), `{"name":"General"}`)
	requireStatus(t, rec, http.StatusConflict)
	assert.Empty(t, ts.published.Changes())
	assert.Contains(t, ts.auditLog.String(), "failed")
}

func TestTables_Update_OwnerPinned(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Update", mock.Anything, acme.ID, "posts",
		mock.MatchedBy(func(set store.Row) bool {
			html, _ := set["body_html"].(string)
			return set["title"] == "New" && strings.Contains(html, "<em>")
		}),
		mock.MatchedBy(func(filters []query.Filter) bool {
			return len(filters) == 2 &&
				filters[0].Column == "id" && filters[0].Value == "p1" &&
				filters[1].Column == "author_id" && filters[1].Value == alice.ID
		}),
	).Return([]store.Row{{"id": "p1"}}, nil)

	rec := ts.do(t, "PATCH", "/rest/acme/posts?id=eq.p1", ts.tokenFor(t, alice), `{"title":"New","body":"*hi*"}`)
	requireStatus(t, rec, http.StatusOK)

	changes := ts.published.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, events.OpUpdate, changes[0].Op)
	ts.tables.AssertExpectations(t)
}

func TestTables_Update_Rejected(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		profile testProfile
		target  string
		body    string
		status  int
	}{
		{"unfiltered", mod, "/rest/acme/posts", `{"title":"x"}`, http.StatusBadRequest},
		{"primary key", mod, "/rest/acme/posts?id=eq.p1", `{"id":"p2"}`, http.StatusBadRequest},
		{"owner column", alice, "/rest/acme/posts?id=eq.p1", `{"author_id":"` + mod.ID + `"}`, http.StatusBadRequest},
		{"immutable column", alice, "/rest/acme/comments?id=eq.c1", `{"post_id":"p9"}`, http.StatusBadRequest},
		{"profile outside owner columns", alice, "/rest/acme/profiles?id=eq." + alice.ID, `{"coins":100}`, http.StatusBadRequest},
		{"role change by admin", admin, "/rest/acme/profiles?id=eq." + alice.ID, `{"role":"owner"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "PATCH", tt.target, ts.tokenFor(t, tt.profile), tt.body)
			requireStatus(t, rec, tt.status)
		})
	}
	ts.tables.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTables_Update_OwnProfile(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Update", mock.Anything, acme.ID, "profiles", store.Row{"bio": "hi"},
		mock.MatchedBy(func(filters []query.Filter) bool {
			last := filters[len(filters)-1]
			return last.Column == "id" && last.Value == alice.ID
		}),
	).Return([]store.Row{{"id": alice.ID}}, nil)

	rec := ts.do(t, "PATCH", "/rest/acme/profiles?id=eq."+alice.ID, ts.tokenFor(t, alice), `{"bio":"hi"}`)
	requireStatus(t, rec, http.StatusOK)
	ts.tables.AssertExpectations(t)
}

func TestTables_Delete(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Delete", mock.Anything, acme.ID, "posts", mock.MatchedBy(func(filters []query.Filter) bool {
		return len(filters) == 1 && filters[0].Op == query.In
	})).Return([]store.Row{{"id": "p1"}, {"id": "p2"}}, nil)

	rec := ts.do(t, "DELETE", "/rest/acme/posts?id=in.(p1,p2)", ts.tokenFor(t, mod), "")
	requireStatus(t, rec, http.StatusOK)

	changes := ts.published.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, events.OpDelete, changes[0].Op)
	assert.Equal(t, []string{"p1", "p2"}, changes[0].IDs)
	assert.Contains(t, ts.auditLog.String(), "mod@acme deleted 2 row(s) of posts")
}

func TestTables_Delete_NothingMatched(t *testing.T) {
	ts := newTestServer(t)
	ts.tables.On("Delete", mock.Anything, acme.ID, "posts", mock.Anything).Return([]store.Row{}, nil)

	rec := ts.do(t, "DELETE", "/rest/acme/posts?id=eq.p1", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, ts.published.Changes())
}

func TestTables_Delete_Unfiltered(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "DELETE", "/rest/acme/posts", ts.tokenFor(t, admin), "")
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, decodeHTTPError(t, rec).Message, "filter")
}

func TestDecodeRows(t *testing.T) {
	rows, err := decodeRows([]byte(`  {"n": 12345678901234567890}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12345678901234567890", rows[0]["n"].(interface{ String() string }).String())

	_, err = decodeRows([]byte(`"text"`))
	assert.Error(t, err)
}

func TestRowIDs(t *testing.T) {
	ids := rowIDs([]store.Row{
		{"id": "a"},
		{"id": []byte("b")},
		{"id": int64(7)},
		{"title": "no id"},
	})
	assert.Equal(t, []string{"a", "b", "7"}, ids)
}
