// Package server provides the HTTP server for the community API.
//
// The server exposes three call shapes, all scoped to the company named in
// the URL, which must match the company of the caller's access token:
//
//   - /rest/{company}/{table} - table queries (select, insert, update, delete)
//   - /rpc/{company}/{function} - named server functions run in one transaction
//   - /storage/{company}/... - object upload, download, listing and signed URLs
//
// plus /authn/{company}/{login}/authenticate for exchanging an API key for an
// access token.
//
// # Server Setup
//
//	srv := server.NewServer(db, server.Options{Host: "0.0.0.0", Port: "8080", ...})
//	srv.TablesStore = gormstore.NewTablesStore(db)
//	...
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// Requests pass through gorilla/handlers access logging, panic recovery and
// optional CORS, then the zerolog request logger, before reaching the router.
package server
