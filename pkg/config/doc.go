// Package config provides configuration management for the community server.
//
// Configuration is loaded from an optional YAML file and environment
// variables, with the environment taking precedence. Every attribute
// remembers where its value came from (default, file or environment) so
// `communityctl configuration show` can explain the effective setup.
//
// # Configuration Sources
//
//   - $COMMUNITY_CONFIG_PATH/community.yml (default /etc/community/config)
//   - COMMUNITY_* environment variables, e.g. COMMUNITY_STORAGE_ROOT
//
// # Secrets
//
// Secrets are deliberately not attributes and never appear in Attributes():
//
//   - COMMUNITY_SIGNING_KEY: base64 HMAC key for access tokens and signed URLs
//   - DATABASE_URL: Database connection
//   - AUDIT_DATABASE_URL: optional audit database
package config
