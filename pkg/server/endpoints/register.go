package endpoints

import (
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
)

// RegisterAll registers all API endpoints on the server. Routes without a
// token are registered before the authenticated subrouters that share
// their prefix.
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterAuthenticateEndpoints(srv)
	RegisterWhoamiEndpoint(srv)
	RegisterStorageEndpoints(srv)
	RegisterRPCEndpoints(srv)
	RegisterTablesEndpoints(srv)
}
