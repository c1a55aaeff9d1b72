package endpoints

import (
	"net/http"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
)

// WhoamiResponse represents the response from the /whoami endpoint
type WhoamiResponse struct {
	Company   string     `json:"company"`
	CompanyID string     `json:"company_id"`
	Login     string     `json:"login"`
	ProfileID string     `json:"profile_id"`
	Role      model.Role `json:"role"`
	ClientIP  string     `json:"client_ip,omitempty"`
	TokenIAT  int64      `json:"token_iat,omitempty"`
	TokenExp  int64      `json:"token_exp,omitempty"`
}

// RegisterWhoamiEndpoint registers the /whoami endpoint
func RegisterWhoamiEndpoint(s *server.Server) {
	whoamiRouter := s.Router.PathPrefix("/whoami").Subrouter()
	whoamiRouter.Use(s.JWTMiddleware.Middleware)

	whoamiRouter.HandleFunc("", handleWhoami()).Methods("GET")
}

func handleWhoami() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}

		response := WhoamiResponse{
			Company:   id.Company.Slug,
			CompanyID: id.Company.ID.String(),
			Login:     id.Login,
			ProfileID: id.ProfileID,
			Role:      id.Role,
		}
		if id.RemoteIP != nil {
			response.ClientIP = id.RemoteIP.String()
		}
		if !id.IssuedAt.IsZero() {
			response.TokenIAT = id.IssuedAt.Unix()
		}
		if !id.ExpiresAt.IsZero() {
			response.TokenExp = id.ExpiresAt.Unix()
		}

		respondWithJSON(w, http.StatusOK, response)
	}
}
