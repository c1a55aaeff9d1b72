package endpoints

import (
	"html/template"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
)

// AuthenticatorsResponse represents the response from /authenticators
type AuthenticatorsResponse struct {
	Installed  []string `json:"installed"`
	Configured []string `json:"configured"`
	Enabled    []string `json:"enabled"`
}

// AuthenticatorStatusResponse represents the response from the authenticator
// status endpoint. Error is only set when Status is "error".
type AuthenticatorStatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RegisterStatusEndpoints registers the status and info endpoints
func RegisterStatusEndpoints(s *server.Server) {
	// GET / - Status page (no auth required)
	s.Router.HandleFunc("/", handleStatus()).Methods("GET")

	// GET /authenticators - List authenticators (no auth required)
	s.Router.HandleFunc("/authenticators", handleAuthenticators(s.Authenticators, s.Config.Authenticators)).Methods("GET")

	// GET /authn/{company}/status - Authenticator status (no auth required)
	s.Router.HandleFunc("/authn/{company}/status", handleAuthenticatorStatus(s.HealthStore, s.CompaniesStore, s.Authenticators)).Methods("GET")
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width">
    <title>Community Status</title>
  </head>
  <body>
    <main>
      <h1>Status</h1>
      <p class="status-text">Your community server is running!</p>
      <dl>
        <dt>Details:</dt>
        <dd>Version {{.Version}}</dd>
        <dd>API Version {{.APIVersion}}</dd>
      </dl>
    </main>
  </body>
</html>
`))

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := envOr("COMMUNITY_VERSION_DISPLAY", "0.1.0")
		apiVersion := envOr("API_VERSION", "1.0.0")

		accept := r.Header.Get("Accept")
		format := r.URL.Query().Get("format")
		if format == "json" || strings.Contains(accept, "application/json") {
			respondWithJSON(w, http.StatusOK, map[string]string{
				"version":     version,
				"api_version": apiVersion,
			})
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = statusPage.Execute(w, struct{ Version, APIVersion string }{version, apiVersion})
	}
}

func handleAuthenticators(registry *authenticator.Registry, configured []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conf := make([]string, len(configured))
		copy(conf, configured)
		sort.Strings(conf)

		respondWithJSON(w, http.StatusOK, AuthenticatorsResponse{
			Installed:  registry.Installed(),
			Configured: conf,
			Enabled:    registry.Enabled(),
		})
	}
}

func handleAuthenticatorStatus(
	healthStore store.HealthStore,
	companies store.CompaniesStore,
	registry *authenticator.Registry,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["company"]

		// Check 1: Database connectivity
		if err := healthStore.CheckConnectivity(r.Context()); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, AuthenticatorStatusResponse{
				Status: "error",
				Error:  "database connectivity check failed",
			})
			return
		}

		// Check 2: The company exists
		if _, err := companies.GetCompany(r.Context(), slug); err != nil {
			respondWithError(w, r, err)
			return
		}

		// Check 3: Authenticator is enabled and healthy
		authn, ok := registry.GetEnabled(apiKeyAuthenticator)
		if !ok {
			respondWithJSON(w, http.StatusNotImplemented, AuthenticatorStatusResponse{
				Status: "error",
				Error:  "authenticator is not enabled",
			})
			return
		}
		if err := authn.Status(r.Context()); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, AuthenticatorStatusResponse{
				Status: "error",
				Error:  err.Error(),
			})
			return
		}

		respondWithJSON(w, http.StatusOK, AuthenticatorStatusResponse{Status: "ok"})
	}
}
