package store

import (
	"context"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// ObjectsStore abstracts storage object metadata
type ObjectsStore interface {
	// PutObject creates or replaces the metadata row of an object
	PutObject(ctx context.Context, obj *model.StorageObject) (*model.StorageObject, error)

	// GetObject returns an object's metadata.
	// Returns ErrNotFound if it doesn't exist.
	GetObject(ctx context.Context, company tenant.ID, bucket, path string) (*model.StorageObject, error)

	// DeleteObject removes an object's metadata.
	// Returns ErrNotFound if it doesn't exist.
	DeleteObject(ctx context.Context, company tenant.ID, bucket, path string) error

	// ListObjects lists objects in bucket whose path starts with prefix
	ListObjects(ctx context.Context, company tenant.ID, bucket, prefix string, limit, offset int) ([]model.StorageObject, error)
}
