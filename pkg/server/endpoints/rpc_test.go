package endpoints

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/dbtest"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
)

func functionNames(infos []FunctionInfo) []string {
	names := make([]string, len(infos))
	for i, f := range infos {
		names[i] = f.Name
	}
	return names
}

func TestRPC_ListFunctions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/rpc/acme", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusOK)
	var member []FunctionInfo
	decodeBody(t, rec, &member)
	assert.Contains(t, functionNames(member), "leaderboard")
	assert.NotContains(t, functionNames(member), "award_coins")

	rec = ts.do(t, "GET", "/rpc/acme", ts.tokenFor(t, admin), "")
	requireStatus(t, rec, http.StatusOK)
	var all []FunctionInfo
	decodeBody(t, rec, &all)
	assert.Contains(t, functionNames(all), "award_coins")
	assert.Greater(t, len(all), len(member))
}

func TestRPC_Call(t *testing.T) {
	ts := newTestServer(t)
	today := time.Now().UTC()

	ts.db.Mock.ExpectBegin()
	ts.db.Mock.ExpectQuery("current_streak").
		WithArgs(acme.ID.String(), alice.ID).
		WillReturnRows(dbtest.Rows([]string{"current_streak", "longest_streak", "last_activity_date"},
			[]interface{}{2, 4, today}))
	ts.db.Mock.ExpectCommit()

	rec := ts.do(t, "POST", "/rpc/acme/record_activity", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusOK)

	var got rpc.StreakResult
	decodeBody(t, rec, &got)
	assert.Equal(t, rpc.StreakResult{CurrentStreak: 2, LongestStreak: 4}, got)

	changes := ts.published.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, "profiles", changes[0].Table)
	assert.Equal(t, events.OpCall, changes[0].Op)
	assert.Contains(t, ts.auditLog.String(), "alice@acme called record_activity")
	assert.NoError(t, ts.db.Mock.ExpectationsWereMet())
}

func TestRPC_Call_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		profile testProfile
		fn      string
		body    string
		status  int
	}{
		{"unknown function", alice, "drop_tables", "", http.StatusNotFound},
		{"below minimum role", alice, "award_coins", `{"profile_id":"` + mod.ID + `","amount":5,"reason":"x"}`, http.StatusForbidden},
		{"unknown argument", alice, "leaderboard", `{"karma":true}`, http.StatusBadRequest},
		{"invalid argument", alice, "leaderboard", `{"by":"karma"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "POST", "/rpc/acme/"+tt.fn, ts.tokenFor(t, tt.profile), tt.body)
			requireStatus(t, rec, tt.status)
		})
	}
	assert.Empty(t, ts.published.Changes())
	assert.Contains(t, ts.auditLog.String(), "alice@acme failed to call award_coins")
	assert.NoError(t, ts.db.Mock.ExpectationsWereMet())
}

func TestRPC_Call_OtherCompany(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "POST", "/rpc/globex/leaderboard", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusForbidden)
}
