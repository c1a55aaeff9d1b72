package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/doodlesbykumbi/community-in-go/pkg/audit"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
)

// FunctionInfo describes a callable function in GET /rpc/{company}.
type FunctionInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	MinRole     model.Role `json:"min_role"`
}

func RegisterRPCEndpoints(s *server.Server) {
	rpcRouter := s.Router.PathPrefix("/rpc/{company}").Subrouter()
	rpcRouter.Use(s.JWTMiddleware.Middleware)

	// GET /rpc/{company} - List functions available to the caller
	rpcRouter.HandleFunc("", handleListFunctions(s.RPC.Registry())).Methods("GET")

	// POST /rpc/{company}/{function} - Call a function
	rpcRouter.HandleFunc("/{function}", handleCall(s.RPC, s.Events, s.Audit)).Methods("POST")
}

func handleListFunctions(registry *rpc.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}

		available := registry.Available(id.Role)
		infos := make([]FunctionInfo, len(available))
		for i, f := range available {
			infos[i] = FunctionInfo{Name: f.Name, Description: f.Description, MinRole: f.MinRole}
		}
		respondWithJSON(w, http.StatusOK, infos)
	}
}

func handleCall(executor *rpc.Executor, publisher events.Publisher, auditor *audit.Auditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		name := mux.Vars(r)["function"]

		fail := func(err error) {
			auditor.Log(audit.RPCEvent{
				Actor:        audit.ActorOf(id),
				Function:     name,
				ErrorMessage: httpError(err).Message,
			})
			respondWithError(w, r, err)
		}

		body, err := readBody(w, r, maxJSONBody)
		if err != nil {
			fail(err)
			return
		}

		result, err := executor.Call(r.Context(), id, name, body)
		if err != nil {
			fail(err)
			return
		}

		if len(result.Function.Tables) > 0 {
			changes := make([]events.Change, len(result.Function.Tables))
			for i, table := range result.Function.Tables {
				changes[i] = events.NewChange(id.Company, table, events.OpCall, nil)
			}
			if err := publisher.Publish(r.Context(), changes...); err != nil {
				hlog.FromRequest(r).Error().Err(err).Str("function", name).Msg("failed to publish change")
			}
		}

		auditor.Log(audit.RPCEvent{
			Actor:    audit.ActorOf(id),
			Function: name,
			Success:  true,
		})
		respondWithJSON(w, http.StatusOK, result.Value)
	}
}
