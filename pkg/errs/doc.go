// Package errs defines the error shape returned by every API endpoint.
//
// An HTTPError serializes directly to JSON:
//
//	{"code": "FORBIDDEN", "message": "...", "status": 403, "errors": []}
//
// Errors carries field-level validation failures. The client package decodes
// the same shape, so callers on both sides agree on what went wrong.
package errs
