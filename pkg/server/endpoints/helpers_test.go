package endpoints

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/audit"
	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator/authn"
	"github.com/doodlesbykumbi/community-in-go/pkg/config"
	"github.com/doodlesbykumbi/community-in-go/pkg/dbtest"
	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/objectstore"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

var (
	acme = tenant.Company{ID: "7f1c9d52-3a7e-4c4b-9a51-0d1b2c3d4e5f", Slug: "acme"}

	alice = testProfile{ID: "a0000000-0000-4000-8000-000000000001", Login: "alice", Role: model.RoleMember}
	mod   = testProfile{ID: "a0000000-0000-4000-8000-000000000002", Login: "mod", Role: model.RoleModerator}
	admin = testProfile{ID: "a0000000-0000-4000-8000-000000000003", Login: "admin", Role: model.RoleAdmin}
)

type testProfile struct {
	ID    string
	Login string
	Role  model.Role
}

type testServer struct {
	*server.Server
	tables    *mockTablesStore
	companies *mockCompaniesStore
	creds     *mockAuthenticateStore
	objects   *mockObjectsStore
	health    *mockHealthStore
	published *recordingPublisher
	auditLog  *bytes.Buffer
	db        *dbtest.MockDB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	key, err := token.GenerateKey()
	require.NoError(t, err)
	raw, err := token.DecodeKey(key)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(raw, time.Hour)
	require.NoError(t, err)

	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	auditLog := &bytes.Buffer{}
	logger := audit.NewLogger()
	logger.SetWriter(auditLog)

	cfg := &config.CommunityConfig{
		APIListLimitDefault: 50,
		APIListLimitMax:     100,
		AccessTokenTTL:      3600,
		SignedURLTTL:        300,
		StorageBuckets:      []string{"avatars", "attachments"},
		Authenticators:      []string{"authn"},
	}
	published := &recordingPublisher{}

	srv := server.NewServer(mockDB.GormDB, server.Options{
		Config: cfg,
		Log:    zerolog.Nop(),
		Tokens: issuer,
		Events: published,
		Audit:  audit.New(logger, nil, zerolog.Nop()),
	})

	ts := &testServer{
		Server:    srv,
		tables:    &mockTablesStore{},
		companies: &mockCompaniesStore{},
		creds:     &mockAuthenticateStore{},
		objects:   &mockObjectsStore{},
		health:    &mockHealthStore{},
		published: published,
		auditLog:  auditLog,
		db:        mockDB,
	}
	srv.TablesStore = ts.tables
	srv.CompaniesStore = ts.companies
	srv.AuthenticateStore = ts.creds
	srv.ObjectsStore = ts.objects
	srv.HealthStore = ts.health
	srv.RPC = rpc.NewExecutor(mockDB.GormDB, rpc.Builtins())
	srv.Objects = objectstore.NewFS(t.TempDir(), 1<<10, cfg.StorageBuckets)
	srv.Authenticators.Register(authn.New(ts.creds, ts.health))
	require.NoError(t, srv.Authenticators.Enable("authn"))

	RegisterAll(srv)
	return ts
}

// tokenFor issues an access token for p in acme.
func (ts *testServer) tokenFor(t *testing.T, p testProfile) string {
	t.Helper()
	raw, _, err := ts.Tokens.Issue(p.ID, acme, p.Login, p.Role)
	require.NoError(t, err)
	return raw
}

// do sends a request through the full handler chain. An empty bearer sends
// no Authorization header.
func (ts *testServer) do(t *testing.T, method, target, bearer string, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func decodeHTTPError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()
	var he errs.HTTPError
	decodeBody(t, rec, &he)
	return he
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}
