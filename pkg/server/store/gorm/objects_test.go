package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/community-in-go/pkg/dbtest"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
)

var objectColumnNames = []string{
	"id", "company_id", "bucket", "path", "content_type", "size", "owner_id", "created_at", "updated_at",
}

func TestObjectsStore_GetObject(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery(`SELECT `+objectColumns+` FROM storage_objects WHERE company_id = ? AND bucket = ? AND path = ?`).
		WithArgs(string(companyID), "avatars", "alice.png").
		WillReturnRows(dbtest.Rows(objectColumnNames,
			[]interface{}{"o1", string(companyID), "avatars", "alice.png", "image/png", int64(512), "p1", now, now},
		))

	obj, err := NewObjectsStore(mockDB.GormDB).GetObject(context.Background(), companyID, "avatars", "alice.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(512), obj.Size)
	assert.Equal(t, "p1", obj.OwnerID)
}

func TestObjectsStore_PutObject(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	now := time.Now()
	mockDB.Mock.ExpectQuery(`INSERT INTO storage_objects`).
		WithArgs(sqlmock.AnyArg(), string(companyID), "post-media", "a/b.txt", "text/plain", int64(3), "p1").
		WillReturnRows(dbtest.Rows(objectColumnNames,
			[]interface{}{"o1", string(companyID), "post-media", "a/b.txt", "text/plain", int64(3), "p1", now, now},
		))

	obj, err := NewObjectsStore(mockDB.GormDB).PutObject(context.Background(), &model.StorageObject{
		CompanyID:   string(companyID),
		Bucket:      "post-media",
		Path:        "a/b.txt",
		ContentType: "text/plain",
		Size:        3,
		OwnerID:     "p1",
	})
	require.NoError(t, err)
	assert.Equal(t, "o1", obj.ID)
	assert.NoError(t, mockDB.Mock.ExpectationsWereMet())
}

func TestObjectsStore_DeleteObjectNotFound(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	mockDB.ExpectExec(`DELETE FROM storage_objects WHERE company_id = ? AND bucket = ? AND path = ?`).
		WithArgs(string(companyID), "avatars", "nope.png").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewObjectsStore(mockDB.GormDB).DeleteObject(context.Background(), companyID, "avatars", "nope.png")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestObjectsStore_ListObjects(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	mockDB.Mock.ExpectQuery(`FROM storage_objects WHERE company_id = \$1 AND bucket = \$2 AND starts_with\(path, \$3\)`).
		WithArgs(string(companyID), "avatars", "team/", 50, 0).
		WillReturnRows(dbtest.Rows(objectColumnNames))

	objs, err := NewObjectsStore(mockDB.GormDB).ListObjects(context.Background(), companyID, "avatars", "team/", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestHealthStore_CheckConnectivity(t *testing.T) {
	mockDB, err := dbtest.NewMockDB()
	require.NoError(t, err)
	defer mockDB.Close()

	mockDB.ExpectExec(`SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.NoError(t, NewHealthStore(mockDB.GormDB).CheckConnectivity(context.Background()))
}
