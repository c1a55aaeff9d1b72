// Command communityctl runs and administers a multi-tenant community server.
//
// The server exposes three call shapes per company: a table API under
// /rest/{company}/{table}, named procedures under /rpc/{company}/{fn} and
// object storage under /storage/{company}. Callers exchange an API key for a
// bearer token at /authn/{company}/{login}/authenticate.
//
// # Quick Start
//
//	# Generate a token signing key
//	communityctl signing-key generate > signing_key
//	export COMMUNITY_SIGNING_KEY=$(cat signing_key)
//
//	# Run database migrations
//	communityctl db migrate
//
//	# Create a company; the owner's API key is printed
//	communityctl company create acme --name "Acme Inc" --owner admin
//
//	# Load the company catalog
//	communityctl seed apply seed/acme.yml
//
//	# Start the server
//	communityctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - COMMUNITY_SIGNING_KEY: Base64-encoded key of at least 32 bytes for tokens and signed URLs
//   - COMMUNITY_CONFIG_PATH: Directory holding community.yml
//   - COMMUNITY_LOG_LEVEL: Log level (debug, info, warn, error)
//   - AUDIT_DATABASE_URL: Optional database for audit messages
//   - PORT: Server port (default: 8000)
package main
