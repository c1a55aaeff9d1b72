// Package audit records security-relevant operations as RFC5424 syslog
// lines and, optionally, rows in an audit database.
//
// Every event carries the tenant it happened in under the tenant@32473
// structured data element, together with the acting login and client IP.
//
// # Event Types
//
//   - authn: API key authentication attempts
//   - api-key: API key rotation
//   - table-read and table-write: table API access
//   - rpc: remote procedure calls
//   - storage: object uploads, downloads, removals, listings and signing
//
// # Usage
//
//	auditor := audit.New(audit.NewLogger(), store, log)
//	auditor.Log(audit.RPCEvent{
//	    Actor:    audit.ActorOf(id),
//	    Function: "purchase_item",
//	    Success:  true,
//	})
//
// Auditing is on by default and can be switched off with
// COMMUNITY_AUDIT_ENABLED=false.
package audit
