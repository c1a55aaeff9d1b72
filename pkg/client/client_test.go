package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/query"
)

const testToken = "test-token"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "acme", WithToken(testToken, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	c.backoff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func TestNew(t *testing.T) {
	_, err := New("http://localhost:8080", "Acme")
	assert.Error(t, err)

	_, err = New("localhost:8080", "acme")
	assert.Error(t, err)

	c, err := New("http://localhost:8080/", "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", c.Company())
	assert.Equal(t, "http://localhost:8080", c.base.String())
}

func TestAuthenticate(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/authn/acme/admin/authenticate", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "secret-key", string(body))
		writeJSON(w, http.StatusOK, Token{
			AccessToken: "issued",
			TokenType:   "Bearer",
			ExpiresAt:   expires,
			ExpiresIn:   3600,
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "acme")
	require.NoError(t, err)

	tok, err := c.Authenticate(context.Background(), "admin", "secret-key")
	require.NoError(t, err)
	assert.Equal(t, "issued", tok.AccessToken)
	assert.Equal(t, "issued", c.Token().AccessToken)
	assert.True(t, c.Token().ExpiresAt.Equal(expires))
	assert.Equal(t, "admin", c.Login())
}

func TestAuthenticateFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, errs.NewUnauthorizedError("invalid credentials"))
	})

	_, err := c.Authenticate(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, testToken, c.Token().AccessToken)
}

func TestRequestsNeedToken(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "acme")
	require.NoError(t, err)
	_, err = c.From("posts").Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	c.SetToken(Token{AccessToken: "old", ExpiresAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	_, err = c.From("posts").Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTokenExpired)

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRotateAPIKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/authn/acme/api_key", r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("login"))
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("new-key"))
	})

	key, err := c.RotateAPIKey(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "new-key", key)
}

func TestErrorDecoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, errs.NewBadRequestError("validation failed",
			errs.FieldError{Field: "name", Error: "is required"}))
	})

	err := c.From("spaces").Insert(context.Background(), map[string]string{}, nil)
	require.Error(t, err)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, "BAD_REQUEST", e.Code)
	assert.Equal(t, "validation failed", e.Message)
	assert.Equal(t, http.MethodPost, e.Method)
	assert.Equal(t, "/rest/acme/spaces", e.Path)
	msg, ok := e.Field("name")
	assert.True(t, ok)
	assert.Equal(t, "is required", msg)
	assert.ErrorIs(t, err, &errs.HTTPError{})
	assert.False(t, IsRetryable(err))
}

func TestErrorDecodingPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream gone", http.StatusBadGateway)
	})
	c.retries = 0

	err := c.RPC(context.Background(), "award_coins", nil, nil)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusBadGateway, e.Status)
	assert.Equal(t, "BAD_GATEWAY", e.Code)
	assert.Equal(t, "upstream gone", e.Message)
	assert.True(t, IsRetryable(err))
}

func TestReadsAreRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, errs.New(http.StatusServiceUnavailable, "starting"))
			return
		}
		writeJSON(w, http.StatusOK, []map[string]string{{"id": "1"}})
	})

	var rows []map[string]string
	_, err := c.From("posts").Execute(context.Background(), &rows)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRetriesGiveUp(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, errs.New(http.StatusServiceUnavailable, "down"))
	})
	c.retries = 2

	_, err := c.From("posts").Execute(context.Background(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, errs.New(http.StatusServiceUnavailable, "down"))
	})

	err := c.RPC(context.Background(), "award_coins", map[string]int{"amount": 5}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusNotFound, errs.NewNotFoundError("unknown table"))
	})

	_, err := c.From("nope").Execute(context.Background(), nil)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &Error{HTTPError: *errs.New(http.StatusInternalServerError, "boom")}, true},
		{"rate limited", &Error{HTTPError: *errs.New(http.StatusTooManyRequests, "slow down")}, true},
		{"conflict", &Error{HTTPError: *errs.NewConflictError("exists")}, false},
		{"transport", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, true},
		{"canceled", &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}, false},
		{"deadline", context.DeadlineExceeded, false},
		{"other", errors.New("decoding response"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestRPC(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rpc/acme/check_course_completion", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var args map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&args))
		assert.Equal(t, "c1", args["course_id"])
		writeJSON(w, http.StatusOK, map[string]bool{"completed": true})
	})

	var out struct {
		Completed bool `json:"completed"`
	}
	err := c.RPC(context.Background(), "check_course_completion", map[string]string{"course_id": "c1"}, &out)
	require.NoError(t, err)
	assert.True(t, out.Completed)
}

func TestRPCNilArgs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "{}", string(body))
		writeJSON(w, http.StatusOK, nil)
	})
	require.NoError(t, c.RPC(context.Background(), "company_stats", nil, nil))
}

func TestFunctions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rpc/acme", r.URL.Path)
		writeJSON(w, http.StatusOK, []Function{{Name: "award_coins", MinRole: "admin"}})
	})

	fns, err := c.Functions(context.Background())
	require.NoError(t, err)
	require.Len(t, fns, 1)
	assert.Equal(t, "award_coins", fns[0].Name)
}

func TestStorage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut:
			assert.Equal(t, "/storage/acme/object/avatars/u1%2Fme.png", r.URL.EscapedPath())
			assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			writeJSON(w, http.StatusCreated, map[string]interface{}{
				"id": "o1", "bucket": "avatars", "path": "u1/me.png", "size": len(body),
			})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/storage/acme/object/"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png"))
		case r.Method == http.MethodGet:
			assert.Equal(t, "/storage/acme/list/avatars", r.URL.Path)
			assert.Equal(t, "u1/", r.URL.Query().Get("prefix"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, []map[string]string{{"path": "u1/me.png"}})
		case r.Method == http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]string{"id": "o1", "path": "u1/me.png"})
		case r.Method == http.MethodPost:
			assert.Equal(t, "/storage/acme/sign/avatars/u1%2Fme.png", r.URL.EscapedPath())
			var req map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 60, req["expires_in"])
			writeJSON(w, http.StatusOK, SignedURL{URL: "/storage/acme/signed/avatars/u1%2Fme.png?token=abc"})
		}
	})
	ctx := context.Background()
	st := c.Storage()

	obj, err := st.Upload(ctx, "avatars", "u1/me.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "o1", obj.ID)
	assert.EqualValues(t, 3, obj.Size)

	rc, contentType, err := st.Download(ctx, "avatars", "u1/me.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", contentType)

	objects, err := st.List(ctx, "avatars", ListOptions{Prefix: "u1/", Limit: 10})
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "u1/me.png", objects[0].Path)

	signed, err := st.CreateSignedURL(ctx, "avatars", "u1/me.png", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, c.base.String()+"/storage/acme/signed/avatars/u1%2Fme.png?token=abc", signed.URL)

	removed, err := st.Remove(ctx, "avatars", "u1/me.png")
	require.NoError(t, err)
	assert.Equal(t, "o1", removed.ID)
}

func TestFromRequiresTable(t *testing.T) {
	c, err := New("http://localhost", "acme")
	require.NoError(t, err)
	_, err = c.From("").Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestQueryValuesRoundTrip(t *testing.T) {
	c, err := New("http://localhost", "acme")
	require.NoError(t, err)

	q := c.From("posts").
		Select("id", "title").
		Eq("space_id", "s1").
		In("status", "draft", "published").
		Is("deleted_at", nil).
		Not("title", query.Like, "%spam%").
		Order("created_at", Descending(), NullsLast()).
		Limit(5).
		Query()

	parsed, err := query.Parse(q.Values())
	require.NoError(t, err)
	assert.Equal(t, q.Columns, parsed.Columns)
	assert.Equal(t, q.Orders, parsed.Orders)
	assert.Equal(t, 5, parsed.Limit)
	assert.ElementsMatch(t, q.Filters, parsed.Filters)
}
