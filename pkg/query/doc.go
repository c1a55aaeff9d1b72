// Package query is the filter language of the table API, shared by the
// server and the client.
//
// On the wire a query is a set of URL parameters in the PostgREST style:
//
//	select=id,title,created_at
//	space_id=eq.5b1c0d2e-...
//	published=is.true
//	title=not.ilike.*draft*
//	author_id=in.(a,b,"c,d")
//	order=pinned.desc,created_at.desc.nullslast
//	limit=20&offset=40
//
// Pagination may also be expressed with a Range header ("40-59", inclusive),
// and a client that sends "Prefer: count=exact" receives the total row count
// in Content-Range ("40-59/312").
//
// The SQL builders in this package never interpolate values: every value is
// a "?" placeholder, every identifier is quoted, and every statement is
// scoped by company_id. UPDATE and DELETE refuse to run without at least one
// filter.
package query
