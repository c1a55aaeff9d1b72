package authn

import (
	"context"
	"errors"
	"net"

	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
)

// Name is the registry name of the API key authenticator
const Name = "authn"

// Authenticator implements API key authentication
type Authenticator struct {
	credentials store.AuthenticateStore
	health      store.HealthStore
}

var _ authenticator.Authenticator = (*Authenticator)(nil)

// New creates a new API key authenticator
func New(credentials store.AuthenticateStore, health store.HealthStore) *Authenticator {
	return &Authenticator{
		credentials: credentials,
		health:      health,
	}
}

// Name returns the authenticator name
func (a *Authenticator) Name() string {
	return Name
}

// Authenticate validates an API key against the bcrypt hash stored for the
// login in the company
func (a *Authenticator) Authenticate(ctx context.Context, input authenticator.AuthenticatorInput) (*store.Credential, error) {
	if input.Company == "" || input.Login == "" {
		return nil, errors.New("company and login are required")
	}

	cred, err := a.credentials.GetCredential(ctx, input.Company, input.Login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, authenticator.ErrInvalidCredentials
		}
		return nil, err
	}

	if !a.credentials.ValidateAPIKey(cred, input.Credentials) {
		return nil, authenticator.ErrInvalidCredentials
	}
	if cred.IsExpired() {
		return nil, authenticator.ErrExpired
	}

	if len(cred.RestrictedTo) > 0 && input.ClientIP != "" {
		if !isOriginAllowed(input.ClientIP, cred.RestrictedTo) {
			return nil, authenticator.ErrOriginNotAllowed
		}
	}

	return cred, nil
}

// isOriginAllowed checks if the client IP is allowed by CIDR restrictions
func isOriginAllowed(clientIP string, restrictedTo []string) bool {
	// Strip port if present
	host, _, err := net.SplitHostPort(clientIP)
	if err != nil {
		host = clientIP
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	for _, cidrStr := range restrictedTo {
		_, cidrNet, err := net.ParseCIDR(cidrStr)
		if err != nil {
			// Try parsing as single IP
			singleIP := net.ParseIP(cidrStr)
			if singleIP != nil && singleIP.Equal(ip) {
				return true
			}
			continue
		}
		if cidrNet.Contains(ip) {
			return true
		}
	}

	return false
}

// Status checks if the authenticator is healthy
func (a *Authenticator) Status(ctx context.Context) error {
	// Basic authn is always healthy if we can reach the database
	return a.health.CheckConnectivity(ctx)
}
