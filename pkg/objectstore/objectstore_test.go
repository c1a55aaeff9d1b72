package objectstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

const company = tenant.ID("5f0c7c1e-8d5b-4c0a-9a51-0c2f1d9e6a11")

func newFS(t *testing.T, max int64) (*FS, string) {
	root := t.TempDir()
	return NewFS(root, max, []string{"avatars", "post-media"}), root
}

func TestCleanPath(t *testing.T) {
	valid := []string{"a.png", "team/alice.png", "2026/03/report.v2.pdf", "..hidden"}
	for _, p := range valid {
		got, err := CleanPath(p)
		assert.NoError(t, err, p)
		assert.Equal(t, p, got)
	}

	invalid := []string{
		"", "/etc/passwd", "../secret", "a/../../b", "a//b", "a/./b", "a/", `a\b`, "a\x00b",
		strings.Repeat("x", MaxPathLength+1),
	}
	for _, p := range invalid {
		_, err := CleanPath(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestCleanPrefix(t *testing.T) {
	for _, p := range []string{"", "team/", "team/a"} {
		_, err := CleanPrefix(p)
		assert.NoError(t, err, p)
	}
	_, err := CleanPrefix("../")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestFS_PutOpenRemove(t *testing.T) {
	store, root := newFS(t, 1024)
	ctx := context.Background()

	n, err := store.Put(ctx, company, "avatars", "team/alice.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	_, err = os.Stat(filepath.Join(root, string(company), "avatars", "team", "alice.png"))
	require.NoError(t, err)

	rc, err := store.Open(ctx, company, "avatars", "team/alice.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(data))

	// Overwrite
	_, err = store.Put(ctx, company, "avatars", "team/alice.png", strings.NewReader("v2"))
	require.NoError(t, err)
	rc, err = store.Open(ctx, company, "avatars", "team/alice.png")
	require.NoError(t, err)
	data, _ = io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "v2", string(data))

	require.NoError(t, store.Remove(ctx, company, "avatars", "team/alice.png"))
	_, err = store.Open(ctx, company, "avatars", "team/alice.png")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing twice is fine
	assert.NoError(t, store.Remove(ctx, company, "avatars", "team/alice.png"))
}

func TestFS_StageReplacesOnlyOnCommit(t *testing.T) {
	store, root := newFS(t, 1024)
	ctx := context.Background()
	read := func() string {
		rc, err := store.Open(ctx, company, "avatars", "a.png")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}

	_, err := store.Put(ctx, company, "avatars", "a.png", strings.NewReader("v1"))
	require.NoError(t, err)

	u, err := store.Stage(ctx, company, "avatars", "a.png", strings.NewReader("v2-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), u.Size)
	assert.Equal(t, "v1", read())

	require.NoError(t, u.Discard())
	assert.Equal(t, "v1", read())
	entries, err := os.ReadDir(filepath.Join(root, string(company), "avatars"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	u, err = store.Stage(ctx, company, "avatars", "a.png", strings.NewReader("v3"))
	require.NoError(t, err)
	require.NoError(t, u.Commit())
	assert.Equal(t, "v3", read())
}

func TestFS_TenantIsolation(t *testing.T) {
	store, _ := newFS(t, 1024)
	ctx := context.Background()

	_, err := store.Put(ctx, company, "avatars", "a.png", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = store.Open(ctx, tenant.ID("7a1b2c3d-0000-4000-8000-000000000000"), "avatars", "a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFS_TooLarge(t *testing.T) {
	store, root := newFS(t, 4)

	_, err := store.Put(context.Background(), company, "avatars", "big.bin", bytes.NewReader(make([]byte, 5)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, string(company), "avatars"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary upload should be cleaned up")

	_, err = store.Put(context.Background(), company, "avatars", "ok.bin", bytes.NewReader(make([]byte, 4)))
	assert.NoError(t, err)
}

func TestFS_Rejects(t *testing.T) {
	store, _ := newFS(t, 1024)
	ctx := context.Background()

	_, err := store.Put(ctx, company, "secrets", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBucketNotAllowed)

	_, err = store.Put(ctx, company, "avatars", "../../escape.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = store.Put(ctx, tenant.ID("../other"), "avatars", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestFS_CancelledContext(t *testing.T) {
	store, _ := newFS(t, 1024)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, company, "avatars", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFS_RemoveCompany(t *testing.T) {
	store, root := newFS(t, 1024)
	_, err := store.Put(context.Background(), company, "avatars", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.RemoveCompany(company))
	_, err = os.Stat(filepath.Join(root, string(company)))
	assert.True(t, os.IsNotExist(err))
}
