package community

import (
	"context"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
)

const storageObjectsTable = "storage_objects"

// Default buckets.
const (
	BucketAvatars     = "avatars"
	BucketPostMedia   = "post-media"
	BucketCourseMedia = "course-media"
	BucketBranding    = "branding"
)

// Files lists the objects in bucket whose path starts with prefix.
func (d *Data) Files(ctx context.Context, bucket, prefix string, opts ListOptions) ([]model.StorageObject, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(storageObjectsTable, bucket, prefix, opts.key()),
		stale:   staleShort,
		failure: "Could not load files",
	}, func(ctx context.Context) ([]model.StorageObject, error) {
		from, to := opts.bounds()
		return d.client.Storage().List(ctx, bucket, client.ListOptions{
			Prefix: prefix,
			Limit:  to - from + 1,
			Offset: from,
		})
	})
}

// Upload stores r at bucket/p.
func (d *Data) Upload(ctx context.Context, bucket, p string, r io.Reader, contentType string) (*model.StorageObject, error) {
	return mutate(ctx, d, mutation{
		success:     "File uploaded",
		failure:     "Could not upload the file",
		invalidates: []string{storageObjectsTable},
	}, func(ctx context.Context) (*model.StorageObject, error) {
		return d.client.Storage().Upload(ctx, bucket, p, r, contentType)
	})
}

// UploadAvatar stores a new avatar under the profile's folder and points the
// profile at it. name supplies the file extension.
func (d *Data) UploadAvatar(ctx context.Context, profileID, name string, r io.Reader, contentType string) (*model.Profile, error) {
	return mutate(ctx, d, mutation{
		success:     "Avatar updated",
		failure:     "Could not upload the avatar",
		invalidates: []string{storageObjectsTable, profilesTable},
	}, func(ctx context.Context) (*model.Profile, error) {
		p := profileID + "/" + uuid.NewString() + path.Ext(name)
		obj, err := d.client.Storage().Upload(ctx, BucketAvatars, p, r, contentType)
		if err != nil {
			return nil, err
		}
		return updateRow[model.Profile](ctx, d, profilesTable, profileID,
			map[string]interface{}{"avatar_url": obj.Bucket + "/" + obj.Path})
	})
}

func (d *Data) RemoveFile(ctx context.Context, bucket, p string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "File deleted",
		failure:     "Could not delete the file",
		invalidates: []string{storageObjectsTable},
	}, func(ctx context.Context) (*model.StorageObject, error) {
		return d.client.Storage().Remove(ctx, bucket, p)
	})
	return err
}

// Download is not cached. The caller must close the reader.
func (d *Data) Download(ctx context.Context, bucket, p string) (io.ReadCloser, string, error) {
	rc, ct, err := d.client.Storage().Download(ctx, bucket, p)
	if err != nil {
		d.notify.Error(ctx, message("Could not download the file", err), err)
	}
	return rc, ct, err
}

// SignedURL returns a download link valid for expiresIn. Links are reused
// until half their lifetime has passed.
func (d *Data) SignedURL(ctx context.Context, bucket, p string, expiresIn time.Duration) (*client.SignedURL, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(keySignedURLs, bucket, p, strconv.FormatInt(int64(expiresIn/time.Second), 10)),
		stale:   expiresIn / 2,
		failure: "Could not create a download link",
	}, func(ctx context.Context) (*client.SignedURL, error) {
		return d.client.Storage().CreateSignedURL(ctx, bucket, p, expiresIn)
	})
}
