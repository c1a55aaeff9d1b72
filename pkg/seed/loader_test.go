package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

const acmeID = tenant.ID("7f1c9d52-3a7e-4c4b-9a51-0d1b2c3d4e5f")

// memStore keeps rows in memory. Transactions work on a copy that replaces
// the original only on success.
type memStore struct {
	companies map[string]tenant.ID
	rows      map[string][]Row
	failOn    string
}

func newMemStore() *memStore {
	return &memStore{
		companies: map[string]tenant.ID{"acme": acmeID},
		rows: map[string][]Row{
			"profiles": {{"id": "p-alice", "company_id": acmeID, "login": "alice"}},
		},
	}
}

func (m *memStore) clone() *memStore {
	c := &memStore{companies: m.companies, rows: make(map[string][]Row), failOn: m.failOn}
	for table, rows := range m.rows {
		for _, r := range rows {
			cp := Row{}
			for k, v := range r {
				cp[k] = v
			}
			c.rows[table] = append(c.rows[table], cp)
		}
	}
	return c
}

func (m *memStore) Transaction(_ context.Context, fn func(Store) error) error {
	tx := m.clone()
	if err := fn(tx); err != nil {
		return err
	}
	m.rows = tx.rows
	return nil
}

func (m *memStore) CompanyID(_ context.Context, slug string) (tenant.ID, error) {
	id, ok := m.companies[slug]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (m *memStore) Find(_ context.Context, company tenant.ID, table string, key Row) (string, error) {
	for _, r := range m.rows[table] {
		if r["company_id"] != company {
			continue
		}
		match := true
		for k, v := range key {
			if fmt.Sprint(r[k]) != fmt.Sprint(v) {
				match = false
				break
			}
		}
		if match {
			return r["id"].(string), nil
		}
	}
	return "", ErrNotFound
}

func (m *memStore) Insert(_ context.Context, company tenant.ID, table string, row Row) error {
	if table == m.failOn {
		return errors.New("boom")
	}
	r := Row{"company_id": company}
	for k, v := range row {
		r[k] = v
	}
	m.rows[table] = append(m.rows[table], r)
	return nil
}

func (m *memStore) Update(_ context.Context, company tenant.ID, table, id string, set Row) error {
	for _, r := range m.rows[table] {
		if r["company_id"] == company && r["id"] == id {
			for k, v := range set {
				r[k] = v
			}
			return nil
		}
	}
	return ErrNotFound
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestLoader(store Store) *Loader {
	l := NewLoader(store, zerolog.Nop())
	l.newID = sequentialIDs()
	return l
}

func TestLoader_Load(t *testing.T) {
	store := newMemStore()
	result, err := newTestLoader(store).LoadFromReader(context.Background(), strings.NewReader(acmeSeed))
	require.NoError(t, err)

	assert.Equal(t, tenant.Company{ID: acmeID, Slug: "acme"}, result.Company)
	assert.Equal(t, map[string]int{
		"company_branding":     1,
		"spaces":               2,
		"courses":              1,
		"lessons":              2,
		"trails":               1,
		"trail_courses":        1,
		"levels":               2,
		"marketplace_items":    1,
		"access_groups":        1,
		"access_group_members": 1,
		"access_group_courses": 1,
		"access_group_spaces":  1,
		"challenges":           1,
		"events":               1,
	}, result.Created)
	assert.Empty(t, result.Updated)
	assert.Contains(t, result.Tables(), "lessons")

	lessons := store.rows["lessons"]
	require.Len(t, lessons, 2)
	assert.Equal(t, 0, lessons[0]["position"])
	assert.Contains(t, lessons[0]["body_html"], "<h1>Hello</h1>")
	assert.Equal(t, store.rows["courses"][0]["id"], lessons[1]["course_id"])

	assert.Equal(t, "public", store.rows["spaces"][0]["visibility"])
	assert.Equal(t, true, store.rows["marketplace_items"][0]["active"])
	assert.Equal(t, "p-alice", store.rows["access_group_members"][0]["profile_id"])
}

func TestLoader_LoadIsIdempotent(t *testing.T) {
	store := newMemStore()
	loader := newTestLoader(store)

	_, err := loader.LoadFromReader(context.Background(), strings.NewReader(acmeSeed))
	require.NoError(t, err)
	before := len(store.rows["lessons"]) + len(store.rows["spaces"]) + len(store.rows["access_group_members"])

	result, err := loader.LoadFromReader(context.Background(), strings.NewReader(acmeSeed))
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	assert.Equal(t, 2, result.Updated["spaces"])
	assert.Equal(t, 2, result.Updated["lessons"])
	// Link rows have no columns of their own to update.
	assert.Zero(t, result.Updated["access_group_members"])
	after := len(store.rows["lessons"]) + len(store.rows["spaces"]) + len(store.rows["access_group_members"])
	assert.Equal(t, before, after)
}

func TestLoader_UpdatesExistingRows(t *testing.T) {
	store := newMemStore()
	loader := newTestLoader(store)
	_, err := loader.LoadFromReader(context.Background(), strings.NewReader(acmeSeed))
	require.NoError(t, err)

	renamed := strings.Replace(acmeSeed, "name: General", "name: Lobby", 1)
	_, err = loader.LoadFromReader(context.Background(), strings.NewReader(renamed))
	require.NoError(t, err)

	require.Len(t, store.rows["spaces"], 2)
	assert.Equal(t, "Lobby", store.rows["spaces"][0]["name"])
}

func TestLoader_DryRun(t *testing.T) {
	store := newMemStore()
	result, err := newTestLoader(store).WithDryRun(true).LoadFromReader(context.Background(), strings.NewReader(acmeSeed))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created["spaces"])
	assert.Empty(t, store.rows["spaces"])
}

func TestLoader_Errors(t *testing.T) {
	t.Run("unknown company", func(t *testing.T) {
		_, err := newTestLoader(newMemStore()).LoadFromReader(context.Background(), strings.NewReader("company: globex"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), `company "globex"`)
	})

	t.Run("unknown trail course rolls back", func(t *testing.T) {
		store := newMemStore()
		input := "company: acme\nspaces:\n  - slug: general\n    name: General\n" +
			"trails:\n  - slug: t\n    title: T\n    courses: [missing]"
		_, err := newTestLoader(store).LoadFromReader(context.Background(), strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `trail "t": no courses with slug "missing"`)
		assert.Empty(t, store.rows["spaces"])
	})

	t.Run("unknown member login", func(t *testing.T) {
		input := "company: acme\naccess_groups:\n  - name: Staff\n    members: [bob]"
		_, err := newTestLoader(newMemStore()).LoadFromReader(context.Background(), strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `access group "Staff": no profiles with login "bob"`)
	})

	t.Run("insert failure", func(t *testing.T) {
		store := newMemStore()
		store.failOn = "levels"
		input := "company: acme\nlevels:\n  - level: 1\n    min_xp: 0"
		_, err := newTestLoader(store).LoadFromReader(context.Background(), strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert levels: boom")
	})
}
