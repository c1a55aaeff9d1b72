// Package identity provides the authenticated identity of a request.
//
// An Identity combines access token claims (profile, company, login, role)
// with request-specific context (remote IP). The JWT middleware builds one
// per request and stores it in the request context; handlers read it back
// and pass its Company explicitly to stores.
//
// # Basic Usage
//
//	id := identity.FromClaims(claims).WithRemoteIP(clientIP)
//	ctx = identity.Set(ctx, id)
//
//	id, ok := identity.Get(ctx)
//	if !id.Role.AtLeast(model.RoleAdmin) { ... }
//
// The context is only a carrier between middleware and handler. Nothing below
// the handler reads it.
package identity
