package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// MaxPathLength bounds object paths.
const MaxPathLength = 1024

var (
	ErrBucketNotAllowed = errors.New("bucket is not allowed")
	ErrInvalidPath      = errors.New("invalid object path")
	ErrTooLarge         = errors.New("object exceeds the upload limit")
	ErrNotFound         = errors.New("object not found")
)

// Backend stores object contents.
type Backend interface {
	// Put stores r at the object location and returns the bytes written.
	Put(ctx context.Context, company tenant.ID, bucket, path string, r io.Reader) (int64, error)
	// Open returns the object contents.
	Open(ctx context.Context, company tenant.ID, bucket, path string) (io.ReadCloser, error)
	// Remove deletes the object. Missing objects are not an error.
	Remove(ctx context.Context, company tenant.ID, bucket, path string) error
}

// FS is a filesystem Backend.
type FS struct {
	root     string
	maxBytes int64
	buckets  map[string]bool
}

var _ Backend = (*FS)(nil)

// NewFS creates a filesystem backend rooted at root.
func NewFS(root string, maxBytes int64, buckets []string) *FS {
	allowed := make(map[string]bool, len(buckets))
	for _, b := range buckets {
		allowed[b] = true
	}
	return &FS{root: root, maxBytes: maxBytes, buckets: allowed}
}

// MaxBytes returns the upload limit.
func (f *FS) MaxBytes() int64 {
	return f.maxBytes
}

// CheckBucket rejects buckets outside the allowlist.
func (f *FS) CheckBucket(bucket string) error {
	if !f.buckets[bucket] {
		return fmt.Errorf("%w: %q", ErrBucketNotAllowed, bucket)
	}
	return nil
}

// CleanPath validates an object path. Paths are slash separated, relative,
// and may not contain empty, "." or ".." segments.
func CleanPath(p string) (string, error) {
	if p == "" || len(p) > MaxPathLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	if strings.ContainsAny(p, "\\\x00") || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return p, nil
}

// CleanPrefix validates a listing prefix. Unlike CleanPath it accepts the
// empty prefix and a trailing slash.
func CleanPrefix(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if _, err := CleanPath(strings.TrimSuffix(p, "/")); err != nil {
		return "", err
	}
	return p, nil
}

func (f *FS) location(company tenant.ID, bucket, p string) (string, error) {
	if company.IsZero() || strings.ContainsAny(company.String(), "/\\.") {
		return "", fmt.Errorf("%w: company", ErrInvalidPath)
	}
	if err := f.CheckBucket(bucket); err != nil {
		return "", err
	}
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.root, company.String(), bucket, filepath.FromSlash(clean)), nil
}

// Put stores r, replacing any existing object.
func (f *FS) Put(ctx context.Context, company tenant.ID, bucket, path string, r io.Reader) (int64, error) {
	u, err := f.Stage(ctx, company, bucket, path, r)
	if err != nil {
		return 0, err
	}
	if err := u.Commit(); err != nil {
		return 0, err
	}
	return u.Size, nil
}

// Upload is an object written beside its location. It replaces the object
// only on Commit.
type Upload struct {
	Size int64
	tmp  string
	loc  string
}

// Commit moves the upload into place.
func (u *Upload) Commit() error {
	if err := os.Rename(u.tmp, u.loc); err != nil {
		_ = os.Remove(u.tmp)
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

// Discard drops the upload, leaving any existing object untouched.
func (u *Upload) Discard() error {
	if err := os.Remove(u.tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Stage writes r to a temporary file next to the object location. The
// caller must Commit or Discard the result.
func (f *FS) Stage(ctx context.Context, company tenant.ID, bucket, path string, r io.Reader) (*Upload, error) {
	loc, err := f.location(company, bucket, path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(loc), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(loc), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create object: %w", err)
	}

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: io.LimitReader(r, f.maxBytes+1)})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > f.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to write object: %w", err)
	}
	return &Upload{Size: n, tmp: tmp.Name(), loc: loc}, nil
}

// Open returns the object contents.
func (f *FS) Open(ctx context.Context, company tenant.ID, bucket, path string) (io.ReadCloser, error) {
	loc, err := f.location(company, bucket, path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(loc)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Remove deletes the object.
func (f *FS) Remove(ctx context.Context, company tenant.ID, bucket, path string) error {
	loc, err := f.location(company, bucket, path)
	if err != nil {
		return err
	}
	if err := os.Remove(loc); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveCompany deletes every object of a company.
func (f *FS) RemoveCompany(company tenant.ID) error {
	if company.IsZero() || strings.ContainsAny(company.String(), "/\\.") {
		return fmt.Errorf("%w: company", ErrInvalidPath)
	}
	return os.RemoveAll(filepath.Join(f.root, company.String()))
}

// ctxReader stops a copy once the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
