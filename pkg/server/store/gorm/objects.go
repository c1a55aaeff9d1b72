package gorm

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Ensure ObjectsStore implements store.ObjectsStore
var _ store.ObjectsStore = (*ObjectsStore)(nil)

// ObjectsStore implements store.ObjectsStore using GORM
type ObjectsStore struct {
	db *gorm.DB
}

// NewObjectsStore creates a new ObjectsStore
func NewObjectsStore(db *gorm.DB) *ObjectsStore {
	return &ObjectsStore{db: db}
}

const objectColumns = `id, company_id, bucket, path, content_type, size, owner_id, created_at, updated_at`

// PutObject creates or replaces the metadata row of an object
func (s *ObjectsStore) PutObject(ctx context.Context, obj *model.StorageObject) (*model.StorageObject, error) {
	if obj.ID == "" {
		obj.ID = uuid.NewString()
	}
	var stored []model.StorageObject
	err := s.db.WithContext(ctx).Raw(
		`INSERT INTO storage_objects (id, company_id, bucket, path, content_type, size, owner_id) `+
			`VALUES (?, ?, ?, ?, ?, ?, ?) `+
			`ON CONFLICT (company_id, bucket, path) DO UPDATE SET `+
			`content_type = EXCLUDED.content_type, size = EXCLUDED.size, owner_id = EXCLUDED.owner_id, updated_at = now() `+
			`RETURNING `+objectColumns,
		obj.ID, obj.CompanyID, obj.Bucket, obj.Path, obj.ContentType, obj.Size, obj.OwnerID,
	).Scan(&stored).Error
	if err != nil {
		return nil, Classify(err)
	}
	if len(stored) == 0 {
		return obj, nil
	}
	return &stored[0], nil
}

// GetObject returns an object's metadata
func (s *ObjectsStore) GetObject(ctx context.Context, company tenant.ID, bucket, path string) (*model.StorageObject, error) {
	var objects []model.StorageObject
	err := s.db.WithContext(ctx).Raw(
		`SELECT `+objectColumns+` FROM storage_objects WHERE company_id = ? AND bucket = ? AND path = ?`,
		company.String(), bucket, path,
	).Scan(&objects).Error
	if err != nil {
		return nil, Classify(err)
	}
	if len(objects) == 0 {
		return nil, store.ErrNotFound
	}
	return &objects[0], nil
}

// DeleteObject removes an object's metadata
func (s *ObjectsStore) DeleteObject(ctx context.Context, company tenant.ID, bucket, path string) error {
	tx := s.db.WithContext(ctx).Exec(
		`DELETE FROM storage_objects WHERE company_id = ? AND bucket = ? AND path = ?`,
		company.String(), bucket, path)
	if tx.Error != nil {
		return Classify(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListObjects lists objects in bucket whose path starts with prefix
func (s *ObjectsStore) ListObjects(ctx context.Context, company tenant.ID, bucket, prefix string, limit, offset int) ([]model.StorageObject, error) {
	objects := []model.StorageObject{}
	err := s.db.WithContext(ctx).Raw(
		`SELECT `+objectColumns+` FROM storage_objects `+
			`WHERE company_id = ? AND bucket = ? AND starts_with(path, ?) ORDER BY path LIMIT ? OFFSET ?`,
		company.String(), bucket, prefix, limit, offset,
	).Scan(&objects).Error
	if err != nil {
		return nil, Classify(err)
	}
	return objects, nil
}
