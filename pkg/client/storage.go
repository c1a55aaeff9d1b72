package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
)

// Storage uploads and retrieves files in the client's company.
type Storage struct {
	c *Client
}

func (c *Client) Storage() *Storage {
	return &Storage{c: c}
}

// SignedURL is a time-limited download link that needs no token.
type SignedURL struct {
	URL       string    `json:"signed_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ListOptions narrows List. Zero values use the server defaults.
type ListOptions struct {
	Prefix string
	Limit  int
	Offset int
}

func (s *Storage) objectPath(kind, bucket, p string) string {
	return fmt.Sprintf("/storage/%s/%s/%s/%s", s.c.company, kind, url.PathEscape(bucket), url.PathEscape(p))
}

// Upload stores the contents of r at bucket/path, replacing any existing
// object the caller may modify.
func (s *Storage) Upload(ctx context.Context, bucket, path string, r io.Reader, contentType string) (*model.StorageObject, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := s.c.do(ctx, request{
		method:      http.MethodPut,
		path:        s.objectPath("object", bucket, path),
		body:        r,
		contentType: contentType,
	})
	if err != nil {
		return nil, err
	}
	var obj model.StorageObject
	if err := decodeBody(resp, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// Download returns the object's contents and content type. The caller must
// close the reader.
func (s *Storage) Download(ctx context.Context, bucket, path string) (io.ReadCloser, string, error) {
	resp, err := s.c.do(ctx, request{
		method: http.MethodGet,
		path:   s.objectPath("object", bucket, path),
	})
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Remove deletes the object and returns its metadata.
func (s *Storage) Remove(ctx context.Context, bucket, path string) (*model.StorageObject, error) {
	resp, err := s.c.do(ctx, request{
		method: http.MethodDelete,
		path:   s.objectPath("object", bucket, path),
	})
	if err != nil {
		return nil, err
	}
	var obj model.StorageObject
	if err := decodeBody(resp, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (s *Storage) List(ctx context.Context, bucket string, opts ListOptions) ([]model.StorageObject, error) {
	q := url.Values{}
	if opts.Prefix != "" {
		q.Set("prefix", opts.Prefix)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	resp, err := s.c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/storage/%s/list/%s", s.c.company, url.PathEscape(bucket)),
		query:  q,
	})
	if err != nil {
		return nil, err
	}
	var objects []model.StorageObject
	if err := decodeBody(resp, &objects); err != nil {
		return nil, err
	}
	return objects, nil
}

// CreateSignedURL returns an absolute download URL for bucket/path valid
// for expiresIn. Zero uses the server's default lifetime.
func (s *Storage) CreateSignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (*SignedURL, error) {
	var args interface{}
	if expiresIn > 0 {
		args = map[string]int{"expires_in": int(expiresIn / time.Second)}
	}
	body, err := jsonBody(args)
	if err != nil {
		return nil, err
	}
	resp, err := s.c.do(ctx, request{
		method:      http.MethodPost,
		path:        s.objectPath("sign", bucket, path),
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	var signed SignedURL
	if err := decodeBody(resp, &signed); err != nil {
		return nil, err
	}
	signed.URL = s.c.base.String() + signed.URL
	return &signed, nil
}
