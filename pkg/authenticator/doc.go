// Package authenticator defines the interface for community authenticators.
//
// An authenticator turns presented credentials into a stored credential,
// which the authenticate endpoint then exchanges for an access token.
//
// # Authenticator Interface
//
// All authenticators implement the Authenticator interface:
//
//	type Authenticator interface {
//	    Name() string
//	    Authenticate(ctx context.Context, input AuthenticatorInput) (*store.Credential, error)
//	    Status(ctx context.Context) error
//	}
//
// # Built-in Authenticators
//
//   - authn: API key authentication (default) - see [github.com/doodlesbykumbi/community-in-go/pkg/authenticator/authn]
//
// # Configuration
//
// Enabled authenticators are configured via the COMMUNITY_AUTHENTICATORS
// environment variable as a comma-separated list:
//
//	COMMUNITY_AUTHENTICATORS=authn
package authenticator
