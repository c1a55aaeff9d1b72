package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/doodlesbykumbi/community-in-go/pkg/audit"
	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/identity"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/objectstore"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

const objectsTable = "storage_objects"

// SignedURLResponse is returned by POST /storage/{company}/sign/...
type SignedURLResponse struct {
	SignedURL string    `json:"signed_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type signRequest struct {
	ExpiresIn int `json:"expires_in"`
}

// storageAPI carries what the storage handlers share.
type storageAPI struct {
	objects      store.ObjectsStore
	companies    store.CompaniesStore
	fs           *objectstore.FS
	tokens       *token.Issuer
	publisher    events.Publisher
	auditor      *audit.Auditor
	signedTTL    time.Duration
	defaultLimit int
	maxLimit     int
}

func RegisterStorageEndpoints(s *server.Server) {
	api := &storageAPI{
		objects:      s.ObjectsStore,
		companies:    s.CompaniesStore,
		fs:           s.Objects,
		tokens:       s.Tokens,
		publisher:    s.Events,
		auditor:      s.Audit,
		signedTTL:    s.Config.SignedURLDuration(),
		defaultLimit: s.Config.APIListLimitDefault,
		maxLimit:     s.Config.APIListLimitMax,
	}

	// GET /storage/{company}/signed/{bucket}/{path}?token= - Download with a
	// signed URL. Registered before the authenticated subrouter.
	s.Router.HandleFunc("/storage/{company}/signed/{bucket}/{path:.+}", api.handleSignedDownload()).
		Methods("GET").Queries("token", "{token}")

	storageRouter := s.Router.PathPrefix("/storage/{company}").Subrouter()
	storageRouter.Use(s.JWTMiddleware.Middleware)

	// PUT /storage/{company}/object/{bucket}/{path} - Upload
	storageRouter.HandleFunc("/object/{bucket}/{path:.+}", api.handleUpload()).Methods("PUT")

	// GET /storage/{company}/object/{bucket}/{path} - Download
	storageRouter.HandleFunc("/object/{bucket}/{path:.+}", api.handleDownload()).Methods("GET")

	// DELETE /storage/{company}/object/{bucket}/{path} - Remove
	storageRouter.HandleFunc("/object/{bucket}/{path:.+}", api.handleRemove()).Methods("DELETE")

	// GET /storage/{company}/list/{bucket}?prefix= - List
	storageRouter.HandleFunc("/list/{bucket}", api.handleList()).Methods("GET")

	// POST /storage/{company}/sign/{bucket}/{path} - Create a signed URL
	storageRouter.HandleFunc("/sign/{bucket}/{path:.+}", api.handleSign()).Methods("POST")
}

// objectLocation validates the bucket and path of the request.
func (api *storageAPI) objectLocation(r *http.Request) (string, string, error) {
	bucket := mux.Vars(r)["bucket"]
	if err := api.fs.CheckBucket(bucket); err != nil {
		return bucket, "", err
	}
	raw, err := pathVar(r, "path")
	if err != nil {
		return bucket, "", err
	}
	p, err := objectstore.CleanPath(raw)
	if err != nil {
		return bucket, raw, err
	}
	return bucket, p, nil
}

// canModify reports whether the caller may replace or remove obj.
func canModify(id *identity.Identity, obj *model.StorageObject) bool {
	return id.Owns(obj.OwnerID) || id.Can(model.RoleModerator)
}

func (api *storageAPI) handleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		bucket, p, err := api.objectLocation(r)
		if err != nil {
			api.fail(w, r, id, audit.StorageUpload, bucket, p, err)
			return
		}

		existing, err := api.objects.GetObject(r.Context(), id.Company.ID, bucket, p)
		switch {
		case err == nil && !canModify(id, existing):
			api.fail(w, r, id, audit.StorageUpload, bucket, p,
				errs.NewForbiddenError("object belongs to another profile"))
			return
		case err != nil && !errors.Is(err, store.ErrNotFound):
			api.fail(w, r, id, audit.StorageUpload, bucket, p, err)
			return
		}

		if r.ContentLength > api.fs.MaxBytes() {
			api.fail(w, r, id, audit.StorageUpload, bucket, p, objectstore.ErrTooLarge)
			return
		}
		// The new bytes stay staged until the metadata commits, so a failed
		// write leaves the previous object intact.
		upload, err := api.fs.Stage(r.Context(), id.Company.ID, bucket, p, r.Body)
		if err != nil {
			api.fail(w, r, id, audit.StorageUpload, bucket, p, err)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ownerID := id.ProfileID
		if existing != nil {
			ownerID = existing.OwnerID
		}
		obj, err := api.objects.PutObject(r.Context(), &model.StorageObject{
			CompanyID:   id.Company.ID.String(),
			Bucket:      bucket,
			Path:        p,
			ContentType: contentType,
			Size:        upload.Size,
			OwnerID:     ownerID,
		})
		if err != nil {
			_ = upload.Discard()
			api.fail(w, r, id, audit.StorageUpload, bucket, p, err)
			return
		}
		if err := upload.Commit(); err != nil {
			api.fail(w, r, id, audit.StorageUpload, bucket, p, err)
			return
		}

		op := events.OpInsert
		if existing != nil {
			op = events.OpUpdate
		}
		api.publish(r, id.Company, op, obj.ID)
		api.succeed(id, audit.StorageUpload, bucket, p)
		respondWithJSON(w, http.StatusCreated, obj)
	}
}

func (api *storageAPI) handleDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		bucket, p, err := api.objectLocation(r)
		if err != nil {
			api.fail(w, r, id, audit.StorageDownload, bucket, p, err)
			return
		}
		if err := api.serve(w, r, id.Company.ID, bucket, p); err != nil {
			api.fail(w, r, id, audit.StorageDownload, bucket, p, err)
			return
		}
		api.succeed(id, audit.StorageDownload, bucket, p)
	}
}

// serve writes the object's contents. Nothing is written on error.
func (api *storageAPI) serve(w http.ResponseWriter, r *http.Request, company tenant.ID, bucket, p string) error {
	obj, err := api.objects.GetObject(r.Context(), company, bucket, p)
	if err != nil {
		return err
	}
	rc, err := api.fs.Open(r.Context(), company, bucket, p)
	if err != nil {
		return err
	}
	defer rc.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.Header().Set("Last-Modified", obj.UpdatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("bucket", bucket).Str("path", p).Msg("download interrupted")
	}
	return nil
}

func (api *storageAPI) handleRemove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		bucket, p, err := api.objectLocation(r)
		if err != nil {
			api.fail(w, r, id, audit.StorageRemove, bucket, p, err)
			return
		}

		obj, err := api.objects.GetObject(r.Context(), id.Company.ID, bucket, p)
		if err != nil {
			api.fail(w, r, id, audit.StorageRemove, bucket, p, err)
			return
		}
		if !canModify(id, obj) {
			api.fail(w, r, id, audit.StorageRemove, bucket, p,
				errs.NewForbiddenError("object belongs to another profile"))
			return
		}

		if err := api.objects.DeleteObject(r.Context(), id.Company.ID, bucket, p); err != nil {
			api.fail(w, r, id, audit.StorageRemove, bucket, p, err)
			return
		}
		if err := api.fs.Remove(r.Context(), id.Company.ID, bucket, p); err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("bucket", bucket).Str("path", p).Msg("failed to remove object contents")
		}

		api.publish(r, id.Company, events.OpDelete, obj.ID)
		api.succeed(id, audit.StorageRemove, bucket, p)
		respondWithJSON(w, http.StatusOK, obj)
	}
}

func (api *storageAPI) handleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		bucket := mux.Vars(r)["bucket"]
		params := r.URL.Query()
		prefix := params.Get("prefix")

		fail := func(err error) {
			api.fail(w, r, id, audit.StorageList, bucket, prefix, err)
		}

		if err := api.fs.CheckBucket(bucket); err != nil {
			fail(err)
			return
		}
		clean, err := objectstore.CleanPrefix(prefix)
		if err != nil {
			fail(err)
			return
		}
		limit, err := intParam(params, "limit", api.defaultLimit)
		if err != nil {
			fail(err)
			return
		}
		if api.maxLimit > 0 && limit > api.maxLimit {
			limit = api.maxLimit
		}
		offset, err := intParam(params, "offset", 0)
		if err != nil {
			fail(err)
			return
		}

		objects, err := api.objects.ListObjects(r.Context(), id.Company.ID, bucket, clean, limit, offset)
		if err != nil {
			fail(err)
			return
		}
		api.succeed(id, audit.StorageList, bucket, clean)
		respondWithJSON(w, http.StatusOK, objects)
	}
}

func (api *storageAPI) handleSign() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIdentity(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		bucket, p, err := api.objectLocation(r)
		if err != nil {
			api.fail(w, r, id, audit.StorageSign, bucket, p, err)
			return
		}

		ttl := api.signedTTL
		body, err := readBody(w, r, maxJSONBody)
		if err != nil {
			api.fail(w, r, id, audit.StorageSign, bucket, p, err)
			return
		}
		if len(body) > 0 {
			var req signRequest
			if err := decodeJSON(body, &req); err != nil {
				api.fail(w, r, id, audit.StorageSign, bucket, p, err)
				return
			}
			if req.ExpiresIn < 0 {
				api.fail(w, r, id, audit.StorageSign, bucket, p, errs.NewBadRequestError("expires_in must be positive"))
				return
			}
			if req.ExpiresIn > 0 {
				ttl = time.Duration(req.ExpiresIn) * time.Second
			}
		}

		if _, err := api.objects.GetObject(r.Context(), id.Company.ID, bucket, p); err != nil {
			api.fail(w, r, id, audit.StorageSign, bucket, p, err)
			return
		}

		raw, exp, err := api.tokens.SignObject(id.Company.ID, bucket, p, ttl)
		if err != nil {
			api.fail(w, r, id, audit.StorageSign, bucket, p, err)
			return
		}

		api.succeed(id, audit.StorageSign, bucket, p)
		respondWithJSON(w, http.StatusOK, SignedURLResponse{
			SignedURL: SignedPath(id.Company.Slug, bucket, p, raw),
			ExpiresAt: exp,
		})
	}
}

// SignedPath builds the relative URL of a signed download.
func SignedPath(company, bucket, p, raw string) string {
	return fmt.Sprintf("/storage/%s/signed/%s/%s?token=%s",
		url.PathEscape(company), url.PathEscape(bucket), url.PathEscape(p), url.QueryEscape(raw))
}

func (api *storageAPI) handleSignedDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["company"]
		bucket, p, err := api.objectLocation(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}

		company, err := api.companies.GetCompany(r.Context(), slug)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		actor := audit.Actor{Company: tenant.Company{ID: tenant.ID(company.ID), Slug: company.Slug}}

		if err := api.tokens.VerifyObject(r.URL.Query().Get("token"), actor.Company.ID, bucket, p); err != nil {
			api.auditor.Log(audit.StorageEvent{Actor: actor, Operation: audit.StorageDownload, Bucket: bucket, Path: p, ErrorMessage: err.Error()})
			respondWithError(w, r, err)
			return
		}
		if err := api.serve(w, r, actor.Company.ID, bucket, p); err != nil {
			respondWithError(w, r, err)
			return
		}
		api.auditor.Log(audit.StorageEvent{Actor: actor, Operation: audit.StorageDownload, Bucket: bucket, Path: p, Success: true})
	}
}

func (api *storageAPI) publish(r *http.Request, company tenant.Company, op events.Op, objectID string) {
	change := events.NewChange(company, objectsTable, op, []string{objectID})
	if err := api.publisher.Publish(r.Context(), change); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("table", objectsTable).Msg("failed to publish change")
	}
}

func (api *storageAPI) succeed(id *identity.Identity, op, bucket, p string) {
	api.auditor.Log(audit.StorageEvent{
		Actor:     audit.ActorOf(id),
		Operation: op,
		Bucket:    bucket,
		Path:      p,
		Success:   true,
	})
}

func (api *storageAPI) fail(w http.ResponseWriter, r *http.Request, id *identity.Identity, op, bucket, p string, err error) {
	api.auditor.Log(audit.StorageEvent{
		Actor:        audit.ActorOf(id),
		Operation:    op,
		Bucket:       bucket,
		Path:         p,
		ErrorMessage: httpError(err).Message,
	})
	respondWithError(w, r, err)
}

func intParam(params url.Values, name string, def int) (int, error) {
	raw := params.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.NewBadRequestError(name + " must be a non-negative integer")
	}
	return n, nil
}
