// Package querycache is the in-memory cache behind the community data
// layer.
//
// Every query is cached under a Key whose first segment is the company slug
// and whose second is the table or domain it reads. A query has its own
// staleness window: Fetch serves the cached value while it is younger than
// the window and calls the loader otherwise, sharing one call among
// concurrent fetches of the same key.
//
// Mutations do not update entries. They invalidate them, either exactly,
// by prefix ({"acme", "posts"} covers every posts query of acme), by a
// doublestar pattern over the "/"-joined key ("acme/posts/**") or by a
// predicate. Invalidated entries keep their value for Get but are
// re-fetched by the next Fetch.
package querycache
