package endpoints

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/community-in-go/pkg/audit"
	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator"
	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/middleware"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

const apiKeyAuthenticator = "authn"

// maxAPIKeyBody bounds the authenticate request body.
const maxAPIKeyBody = 4 << 10

// TokenResponse is returned by a successful authentication.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int64     `json:"expires_in"`
}

func RegisterAuthenticateEndpoints(s *server.Server) {
	// POST /authn/{company}/{login}/authenticate - Exchange an API key for an access token
	s.Router.HandleFunc(
		"/authn/{company}/{login}/authenticate",
		handleAuthenticate(s.Authenticators, s.Tokens, s.Audit, s.Config.IsTrustedProxy),
	).Methods("POST")

	// PUT /authn/{company}/api_key?login= - Rotate an API key
	rotateRouter := s.Router.PathPrefix("/authn/{company}/api_key").Subrouter()
	rotateRouter.Use(s.JWTMiddleware.Middleware)
	rotateRouter.HandleFunc("", handleRotateAPIKey(s.AuthenticateStore, s.Audit)).Methods("PUT")
}

func handleAuthenticate(
	registry *authenticator.Registry,
	tokens *token.Issuer,
	auditor *audit.Auditor,
	trustedProxy func(string) bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["company"]
		login, err := pathVar(r, "login")
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		clientIP := middleware.ClientIP(r, trustedProxy)
		actor := audit.Actor{
			Company:  tenant.Company{Slug: slug},
			Login:    login,
			ClientIP: clientIP,
		}
		fail := func(err error) {
			auditor.Log(audit.AuthenticateEvent{
				Actor:             actor,
				AuthenticatorName: apiKeyAuthenticator,
				ErrorMessage:      err.Error(),
			})
			respondWithError(w, r, err)
		}

		authn, ok := registry.GetEnabled(apiKeyAuthenticator)
		if !ok {
			fail(errs.NewUnauthorizedError("authenticator is not enabled"))
			return
		}

		apiKey, err := readBody(w, r, maxAPIKeyBody)
		if err != nil {
			fail(err)
			return
		}

		cred, err := authn.Authenticate(r.Context(), authenticator.AuthenticatorInput{
			Company:     slug,
			Login:       login,
			Credentials: apiKey,
			ClientIP:    clientIP,
		})
		if err != nil {
			fail(err)
			return
		}
		actor.Company = cred.Company
		actor.ProfileID = cred.Profile.ID

		raw, exp, err := tokens.Issue(cred.Profile.ID, cred.Company, cred.Profile.Login, cred.Profile.Role)
		if err != nil {
			fail(err)
			return
		}

		auditor.Log(audit.AuthenticateEvent{
			Actor:             actor,
			AuthenticatorName: apiKeyAuthenticator,
			Success:           true,
		})
		respondWithJSON(w, http.StatusOK, TokenResponse{
			AccessToken: raw,
			TokenType:   "Bearer",
			ExpiresAt:   exp,
			ExpiresIn:   int64(tokens.TTL() / time.Second),
		})
	}
}

func handleRotateAPIKey(credentials store.AuthenticateStore, auditor *audit.Auditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}

		target := r.URL.Query().Get("login")
		if target == "" {
			target = id.Login
		}
		fail := func(err error) {
			auditor.Log(audit.APIKeyRotationEvent{
				Actor:        audit.ActorOf(id),
				RotatedLogin: target,
				ErrorMessage: httpError(err).Message,
			})
			respondWithError(w, r, err)
		}

		if target != id.Login && !id.Can(model.RoleAdmin) {
			fail(errs.NewForbiddenError("only admins can rotate another profile's API key"))
			return
		}

		apiKey, err := credentials.RotateAPIKey(r.Context(), id.Company.ID, target)
		if err != nil {
			fail(err)
			return
		}

		auditor.Log(audit.APIKeyRotationEvent{
			Actor:        audit.ActorOf(id),
			RotatedLogin: target,
			Success:      true,
		})
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write(apiKey)
	}
}
