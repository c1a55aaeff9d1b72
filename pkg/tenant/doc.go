// Package tenant defines the company (tenant) boundary.
//
// Every store method, RPC call, storage operation and client cache key takes
// a tenant explicitly. There is deliberately no package-level "current
// company": the tenant of a request is whatever the authenticated token says,
// and it travels as a function argument from the handler downwards.
//
//	company := tenant.Company{ID: "5b1c…", Slug: "acme"}
//	rows, err := tablesStore.Select(ctx, company.ID, table, q)
package tenant
