package endpoints

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator"
	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/identity"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/objectstore"
	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/middleware"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

// maxJSONBody bounds table and RPC request bodies.
const maxJSONBody = 1 << 20

var (
	errUnauthenticated = errors.New("unable to determine identity")
	errBodyTooLarge    = errors.New("request body too large")
)

var statusByError = []struct {
	err    error
	status int
}{
	{store.ErrNotFound, http.StatusNotFound},
	{rpc.ErrNotFound, http.StatusNotFound},
	{rpc.ErrUnknownFunction, http.StatusNotFound},
	{schema.ErrUnknownTable, http.StatusNotFound},
	{objectstore.ErrNotFound, http.StatusNotFound},

	{store.ErrConflict, http.StatusConflict},
	{rpc.ErrInsufficientCoins, http.StatusConflict},
	{rpc.ErrItemUnavailable, http.StatusConflict},
	{rpc.ErrOutOfStock, http.StatusConflict},
	{rpc.ErrChallengeClosed, http.StatusConflict},
	{rpc.ErrNotParticipant, http.StatusConflict},
	{rpc.ErrEventFull, http.StatusConflict},

	{store.ErrInvalidReference, http.StatusUnprocessableEntity},

	{schema.ErrForbidden, http.StatusForbidden},
	{schema.ErrReadOnly, http.StatusForbidden},
	{rpc.ErrForbidden, http.StatusForbidden},
	{tenant.ErrMismatch, http.StatusForbidden},

	{authenticator.ErrInvalidCredentials, http.StatusUnauthorized},
	{authenticator.ErrExpired, http.StatusUnauthorized},
	{authenticator.ErrOriginNotAllowed, http.StatusUnauthorized},
	{token.ErrExpired, http.StatusUnauthorized},
	{token.ErrInvalid, http.StatusUnauthorized},
	{errUnauthenticated, http.StatusUnauthorized},

	{objectstore.ErrTooLarge, http.StatusRequestEntityTooLarge},
	{errBodyTooLarge, http.StatusRequestEntityTooLarge},

	{store.ErrInvalidInput, http.StatusBadRequest},
	{schema.ErrUnknownColumn, http.StatusBadRequest},
	{schema.ErrColumnLocked, http.StatusBadRequest},
	{query.ErrUnknownOperator, http.StatusBadRequest},
	{query.ErrInvalidValue, http.StatusBadRequest},
	{query.ErrInvalidOrder, http.StatusBadRequest},
	{query.ErrInvalidRange, http.StatusBadRequest},
	{query.ErrUnfiltered, http.StatusBadRequest},
	{query.ErrUnknownColumn, http.StatusBadRequest},
	{rpc.ErrInvalidArgs, http.StatusBadRequest},
	{objectstore.ErrInvalidPath, http.StatusBadRequest},
	{objectstore.ErrBucketNotAllowed, http.StatusBadRequest},
	{model.ErrUnknownRole, http.StatusBadRequest},
	{tenant.ErrInvalidSlug, http.StatusBadRequest},
	{tenant.ErrInvalidID, http.StatusBadRequest},
}

// httpError classifies err into the API error written to the client.
// Unclassified errors become a 500 that hides the cause.
func httpError(err error) *errs.HTTPError {
	var he *errs.HTTPError
	if errors.As(err, &he) {
		return he
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return errs.New(m.status, err.Error())
		}
	}
	return errs.NewInternalServerError()
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	he := httpError(err)
	if he.Status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	middleware.WriteError(w, he)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		middleware.WriteError(w, errs.NewInternalServerError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	return body, nil
}

// requestIdentity returns the caller set by the JWT middleware.
func requestIdentity(r *http.Request) (*identity.Identity, error) {
	id, ok := identity.Get(r.Context())
	if !ok || id == nil {
		return nil, errUnauthenticated
	}
	return id, nil
}

// pathVar returns an unescaped route variable. The router matches on the
// encoded path so slashes inside a variable arrive escaped.
func pathVar(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil {
		return "", errs.NewBadRequestError(err.Error())
	}
	return v, nil
}
