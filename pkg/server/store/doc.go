// Package store provides storage abstractions for the community server.
//
// This package defines interfaces for database operations, allowing the
// server endpoints to be decoupled from the specific database implementation.
// Every method that touches tenant data takes the company explicitly.
//
// # Available Stores
//
//   - TablesStore: generic select/insert/update/delete for registered tables
//   - CompaniesStore: tenant and profile provisioning
//   - AuthenticateStore: API key lookup, validation and rotation
//   - ObjectsStore: storage object metadata
//   - HealthStore: database connectivity
//
// # Usage
//
//	tables := gormstore.NewTablesStore(db)
//	rows, err := tables.Select(ctx, company.ID, postsTable, q)
//	if err != nil {
//	    if errors.Is(err, store.ErrInvalidInput) {
//	        // Handle bad filter value
//	    }
//	}
package store
