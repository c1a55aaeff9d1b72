package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/identity"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

const bearerPrefix = "Bearer "

// JWTAuthenticator is middleware that validates access tokens
type JWTAuthenticator struct {
	Issuer *token.Issuer
	// TrustedProxy reports whether X-Forwarded-For from ip may be believed.
	TrustedProxy func(ip string) bool
}

// NewJWTAuthenticator creates a new JWT authenticator middleware
func NewJWTAuthenticator(issuer *token.Issuer, trustedProxy func(ip string) bool) *JWTAuthenticator {
	return &JWTAuthenticator{Issuer: issuer, TrustedProxy: trustedProxy}
}

// Middleware returns an HTTP middleware that validates bearer tokens and
// stores the caller's identity in the request context. When the route has a
// {company} variable it must name the token's company.
func (j *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			WriteError(w, errs.NewUnauthorizedError("Authorization missing"))
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) == len(bearerPrefix) {
			WriteError(w, errs.NewUnauthorizedError("Malformed authorization header"))
			return
		}

		claims, err := j.Issuer.Verify(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				WriteError(w, errs.NewUnauthorizedError("Token expired"))
				return
			}
			WriteError(w, errs.NewUnauthorizedError("Invalid token"))
			return
		}

		id := identity.FromClaims(claims)
		id.WithRemoteIP(net.ParseIP(ClientIP(r, j.TrustedProxy)))

		if company, ok := mux.Vars(r)["company"]; ok {
			if err := id.Company.Check(company); err != nil {
				WriteError(w, errs.NewForbiddenError(err.Error()))
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

// ClientIP returns the address of the client. X-Forwarded-For is honoured
// only when the direct peer is a trusted proxy.
func ClientIP(r *http.Request, trustedProxy func(ip string) bool) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if trustedProxy == nil || !trustedProxy(peer) {
		return peer
	}
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return peer
	}
	first, _, _ := strings.Cut(forwarded, ",")
	return strings.TrimSpace(first)
}

// WriteError writes e as a JSON error body.
func WriteError(w http.ResponseWriter, e *errs.HTTPError) {
	body, _ := json.Marshal(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_, _ = w.Write(body)
}
