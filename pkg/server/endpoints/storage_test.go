package endpoints

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
)

func storedObject(bucket, path, owner string, size int64) *model.StorageObject {
	return &model.StorageObject{
		ID:          "o1",
		CompanyID:   acme.ID.String(),
		Bucket:      bucket,
		Path:        path,
		ContentType: "image/png",
		Size:        size,
		OwnerID:     owner,
		UpdatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestStorage_UploadAndDownload(t *testing.T) {
	ts := newTestServer(t)
	obj := storedObject("avatars", "alice/me.png", alice.ID, 5)

	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "alice/me.png").Return(nil, store.ErrNotFound).Once()
	ts.objects.On("PutObject", mock.Anything, mock.MatchedBy(func(o *model.StorageObject) bool {
		return o.OwnerID == alice.ID && o.Size == 5 && o.ContentType == "image/png" && o.CompanyID == acme.ID.String()
	})).Return(obj, nil)

	rec := ts.do(t, "PUT", "/storage/acme/object/avatars/alice/me.png", ts.tokenFor(t, alice), "hello",
		"Content-Type", "image/png")
	requireStatus(t, rec, http.StatusCreated)

	changes := ts.published.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, "storage_objects", changes[0].Table)
	assert.Equal(t, events.OpInsert, changes[0].Op)
	assert.Equal(t, []string{"o1"}, changes[0].IDs)

	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "alice/me.png").Return(obj, nil)
	rec = ts.do(t, "GET", "/storage/acme/object/avatars/alice/me.png", ts.tokenFor(t, mod), "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
	assert.Contains(t, ts.auditLog.String(), "alice@acme upload avatars/alice/me.png")
	assert.Contains(t, ts.auditLog.String(), "mod@acme download avatars/alice/me.png")
}

func TestStorage_Upload_Rejected(t *testing.T) {
	ts := newTestServer(t)
	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "big.bin").Return(nil, store.ErrNotFound)
	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "taken.png").Return(storedObject("avatars", "taken.png", mod.ID, 3), nil)

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"bucket not allowed", "/storage/acme/object/secrets/a.txt", "x", http.StatusBadRequest},
		{"path traversal", "/storage/acme/object/avatars/..%2Fescape", "x", http.StatusBadRequest},
		{"too large", "/storage/acme/object/avatars/big.bin", strings.Repeat("x", 2048), http.StatusRequestEntityTooLarge},
		{"another profile's object", "/storage/acme/object/avatars/taken.png", "x", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "PUT", tt.target, ts.tokenFor(t, alice), tt.body)
			requireStatus(t, rec, tt.status)
		})
	}
	ts.objects.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	assert.Empty(t, ts.published.Changes())
}

func TestStorage_Upload_ModeratorKeepsOwner(t *testing.T) {
	ts := newTestServer(t)
	existing := storedObject("attachments", "report.pdf", alice.ID, 3)

	ts.objects.On("GetObject", mock.Anything, acme.ID, "attachments", "report.pdf").Return(existing, nil)
	ts.objects.On("PutObject", mock.Anything, mock.MatchedBy(func(o *model.StorageObject) bool {
		return o.OwnerID == alice.ID && o.ContentType == "application/octet-stream"
	})).Return(existing, nil)

	rec := ts.do(t, "PUT", "/storage/acme/object/attachments/report.pdf", ts.tokenFor(t, mod), "new")
	requireStatus(t, rec, http.StatusCreated)

	changes := ts.published.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, events.OpUpdate, changes[0].Op)
}

func TestStorage_Upload_MetadataFailureKeepsContents(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.Objects.Put(context.Background(), acme.ID, "avatars", "alice.png", strings.NewReader("old"))
	require.NoError(t, err)

	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "alice.png").Return(storedObject("avatars", "alice.png", alice.ID, 3), nil)
	ts.objects.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	rec := ts.do(t, "PUT", "/storage/acme/object/avatars/alice.png", ts.tokenFor(t, alice), "new contents")
	requireStatus(t, rec, http.StatusInternalServerError)
	assert.Empty(t, ts.published.Changes())

	rc, err := ts.Objects.Open(context.Background(), acme.ID, "avatars", "alice.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestStorage_Download_MissingContents(t *testing.T) {
	ts := newTestServer(t)
	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "gone.png").Return(storedObject("avatars", "gone.png", alice.ID, 3), nil)

	rec := ts.do(t, "GET", "/storage/acme/object/avatars/gone.png", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusNotFound)
}

func TestStorage_Remove(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.Objects.Put(context.Background(), acme.ID, "avatars", "alice.png", strings.NewReader("img"))
	require.NoError(t, err)

	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "alice.png").Return(storedObject("avatars", "alice.png", alice.ID, 3), nil)
	ts.objects.On("DeleteObject", mock.Anything, acme.ID, "avatars", "alice.png").Return(nil)

	rec := ts.do(t, "DELETE", "/storage/acme/object/avatars/alice.png", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusOK)

	changes := ts.published.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, events.OpDelete, changes[0].Op)

	_, err = ts.Objects.Open(context.Background(), acme.ID, "avatars", "alice.png")
	assert.Error(t, err)
}

func TestStorage_Remove_NotOwner(t *testing.T) {
	ts := newTestServer(t)
	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "mod.png").Return(storedObject("avatars", "mod.png", mod.ID, 3), nil)

	rec := ts.do(t, "DELETE", "/storage/acme/object/avatars/mod.png", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusForbidden)
	ts.objects.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStorage_List(t *testing.T) {
	ts := newTestServer(t)
	ts.objects.On("ListObjects", mock.Anything, acme.ID, "attachments", "docs/", 100, 5).
		Return([]model.StorageObject{*storedObject("attachments", "docs/a.pdf", alice.ID, 1)}, nil)

	rec := ts.do(t, "GET", "/storage/acme/list/attachments?prefix=docs/&limit=500&offset=5", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusOK)

	var got []model.StorageObject
	decodeBody(t, rec, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "docs/a.pdf", got[0].Path)

	rec = ts.do(t, "GET", "/storage/acme/list/attachments?limit=many", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(t, "GET", "/storage/acme/list/attachments?prefix=../", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestStorage_SignedURL(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.Objects.Put(context.Background(), acme.ID, "avatars", "dir/a.png", strings.NewReader("pixels"))
	require.NoError(t, err)

	obj := storedObject("avatars", "dir/a.png", alice.ID, 6)
	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "dir/a.png").Return(obj, nil)
	ts.companies.On("GetCompany", mock.Anything, "acme").Return(&model.Company{ID: acme.ID.String(), Slug: "acme"}, nil)

	rec := ts.do(t, "POST", "/storage/acme/sign/avatars/dir/a.png", ts.tokenFor(t, alice), `{"expires_in":60}`)
	requireStatus(t, rec, http.StatusOK)
	var signed SignedURLResponse
	decodeBody(t, rec, &signed)
	assert.True(t, strings.HasPrefix(signed.SignedURL, "/storage/acme/signed/avatars/dir%2Fa.png?token="), signed.SignedURL)
	assert.WithinDuration(t, time.Now().Add(time.Minute), signed.ExpiresAt, 5*time.Second)

	rec = ts.do(t, "GET", signed.SignedURL, "", "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "pixels", rec.Body.String())

	rec = ts.do(t, "GET", signed.SignedURL+"x", "", "")
	requireStatus(t, rec, http.StatusUnauthorized)

	other := strings.Replace(signed.SignedURL, "dir%2Fa.png", "dir%2Fb.png", 1)
	rec = ts.do(t, "GET", other, "", "")
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestStorage_Sign_Rejected(t *testing.T) {
	ts := newTestServer(t)
	ts.objects.On("GetObject", mock.Anything, acme.ID, "avatars", "missing.png").Return(nil, store.ErrNotFound)

	rec := ts.do(t, "POST", "/storage/acme/sign/avatars/missing.png", ts.tokenFor(t, alice), "")
	requireStatus(t, rec, http.StatusNotFound)

	rec = ts.do(t, "POST", "/storage/acme/sign/avatars/missing.png", ts.tokenFor(t, alice), `{"expires_in":-5}`)
	requireStatus(t, rec, http.StatusBadRequest)
}
