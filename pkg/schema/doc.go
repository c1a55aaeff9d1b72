// Package schema declares every tenant-scoped table reachable through the
// table API, together with who may read and write it.
//
// A Table lists its columns and roles:
//
//   - ReadRole: minimum role to select rows
//   - WriteRole: minimum role to insert, update or delete any row
//   - OwnerColumn: column naming the profile that owns a row. Profiles below
//     WriteRole may still perform the operations in OwnerAccess on rows they
//     own, and inserts get the column forced to the caller.
//   - ColumnRoles: per-column minimum role for writes (e.g. only moderators
//     may pin posts)
//   - Immutable and Generated columns can never be written by clients
//   - Markdown: a source column rendered to HTML into a target column on
//     every write
//
// Tables marked ReadOnly are maintained by RPC functions or the storage API
// and reject all table API writes.
//
// Every table has a company_id column (TenantColumn) that clients can neither
// set nor change.
package schema
