// Package objectstore keeps uploaded files on the local filesystem.
//
// Objects live at {root}/{company}/{bucket}/{path}. Buckets are limited to
// a configured allowlist, object paths are checked so they can never leave
// their bucket, and uploads are capped in size. Writes go to a temporary
// file that is renamed into place, so readers never see partial objects.
//
// Metadata (content type, size, owner) is kept separately in the
// storage_objects table.
package objectstore
