// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// Statements are built by pkg/query and run as raw SQL through GORM, so the
// exact text is what the unit tests assert against with go-sqlmock.
// Postgres errors are mapped onto the store sentinel errors by classify.
package gorm
