package endpoints

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/doodlesbykumbi/community-in-go/pkg/audit"
	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/identity"
	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
)

// tableAPI carries what the table handlers share.
type tableAPI struct {
	tables       store.TablesStore
	publisher    events.Publisher
	auditor      *audit.Auditor
	defaultLimit int
	maxLimit     int
}

func RegisterTablesEndpoints(s *server.Server) {
	api := &tableAPI{
		tables:       s.TablesStore,
		publisher:    s.Events,
		auditor:      s.Audit,
		defaultLimit: s.Config.APIListLimitDefault,
		maxLimit:     s.Config.APIListLimitMax,
	}

	restRouter := s.Router.PathPrefix("/rest/{company}").Subrouter()
	restRouter.Use(s.JWTMiddleware.Middleware)

	// GET /rest/{company}/{table}?filters - Select rows
	restRouter.HandleFunc("/{table}", api.handleSelect()).Methods("GET")

	// POST /rest/{company}/{table} - Insert one object or an array
	restRouter.HandleFunc("/{table}", api.handleInsert()).Methods("POST")

	// PATCH /rest/{company}/{table}?filters - Update matching rows
	restRouter.HandleFunc("/{table}", api.handleUpdate()).Methods("PATCH")

	// DELETE /rest/{company}/{table}?filters - Delete matching rows
	restRouter.HandleFunc("/{table}", api.handleDelete()).Methods("DELETE")
}

// authorize resolves the table and the scope the caller has on it.
func authorize(r *http.Request, op schema.Op) (*identity.Identity, *schema.Table, schema.Scope, error) {
	id, err := requestIdentity(r)
	if err != nil {
		return nil, nil, schema.ScopeNone, err
	}
	table, err := schema.Lookup(mux.Vars(r)["table"])
	if err != nil {
		return id, nil, schema.ScopeNone, err
	}
	scope, err := table.Authorize(op, id.Role)
	if err != nil {
		return id, table, schema.ScopeNone, fmt.Errorf("%w: %s %s", err, op, table.Name)
	}
	return id, table, scope, nil
}

func (api *tableAPI) handleSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, table, _, err := authorize(r, schema.OpSelect)
		if err != nil {
			api.fail(w, r, id, table, audit.OpRead, err)
			return
		}

		q, err := query.Parse(r.URL.Query())
		if err != nil {
			api.fail(w, r, id, table, audit.OpRead, err)
			return
		}
		ranged := r.Header.Get(query.HeaderRange) != ""
		if ranged {
			offset, limit, err := query.ParseRange(r.Header.Get(query.HeaderRange))
			if err != nil {
				api.fail(w, r, id, table, audit.OpRead, err)
				return
			}
			q.Offset, q.Limit = offset, limit
		}
		q.Count = query.WantsCount(r.Header.Get(query.HeaderPrefer))
		if err := q.Validate(table, api.defaultLimit, api.maxLimit); err != nil {
			api.fail(w, r, id, table, audit.OpRead, err)
			return
		}

		rows, err := api.tables.Select(r.Context(), id.Company.ID, table, q)
		if err != nil {
			api.fail(w, r, id, table, audit.OpRead, err)
			return
		}

		total := int64(-1)
		if q.Count {
			total, err = api.tables.Count(r.Context(), id.Company.ID, table, q)
			if err != nil {
				api.fail(w, r, id, table, audit.OpRead, err)
				return
			}
		}
		if ranged || q.Count {
			w.Header().Set(query.HeaderContentRange, query.ContentRange(q.Offset, len(rows), total))
		}

		api.auditor.Log(audit.TableEvent{
			Actor:     audit.ActorOf(id),
			Table:     table.Name,
			Operation: audit.OpRead,
			Rows:      len(rows),
			Success:   true,
		})
		respondWithJSON(w, http.StatusOK, rows)
	}
}

func (api *tableAPI) handleInsert() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, table, scope, err := authorize(r, schema.OpInsert)
		if err != nil {
			api.fail(w, r, id, table, audit.OpInsert, err)
			return
		}

		body, err := readBody(w, r, maxJSONBody)
		if err != nil {
			api.fail(w, r, id, table, audit.OpInsert, err)
			return
		}
		rows, err := decodeRows(body)
		if err != nil {
			api.fail(w, r, id, table, audit.OpInsert, err)
			return
		}

		for _, row := range rows {
			if err := prepareInsert(id, table, scope, row); err != nil {
				api.fail(w, r, id, table, audit.OpInsert, err)
				return
			}
		}

		inserted, err := api.tables.Insert(r.Context(), id.Company.ID, table, rows)
		if err != nil {
			api.fail(w, r, id, table, audit.OpInsert, err)
			return
		}

		api.written(r, id, table, events.OpInsert, audit.OpInsert, inserted)
		respondWithJSON(w, http.StatusCreated, inserted)
	}
}

func (api *tableAPI) handleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, table, scope, err := authorize(r, schema.OpUpdate)
		if err != nil {
			api.fail(w, r, id, table, audit.OpUpdate, err)
			return
		}

		filters, err := writeFilters(r, id, table, scope)
		if err != nil {
			api.fail(w, r, id, table, audit.OpUpdate, err)
			return
		}

		body, err := readBody(w, r, maxJSONBody)
		if err != nil {
			api.fail(w, r, id, table, audit.OpUpdate, err)
			return
		}
		var set store.Row
		if err := decodeJSON(body, &set); err != nil {
			api.fail(w, r, id, table, audit.OpUpdate, err)
			return
		}
		for c := range set {
			if err := table.CheckWrite(schema.OpUpdate, scope, id.Role, c); err != nil {
				api.fail(w, r, id, table, audit.OpUpdate, err)
				return
			}
		}
		if err := table.RenderRow(set); err != nil {
			api.fail(w, r, id, table, audit.OpUpdate, err)
			return
		}

		updated, err := api.tables.Update(r.Context(), id.Company.ID, table, set, filters)
		if err != nil {
			api.fail(w, r, id, table, audit.OpUpdate, err)
			return
		}

		api.written(r, id, table, events.OpUpdate, audit.OpUpdate, updated)
		respondWithJSON(w, http.StatusOK, updated)
	}
}

func (api *tableAPI) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, table, scope, err := authorize(r, schema.OpDelete)
		if err != nil {
			api.fail(w, r, id, table, audit.OpDelete, err)
			return
		}

		filters, err := writeFilters(r, id, table, scope)
		if err != nil {
			api.fail(w, r, id, table, audit.OpDelete, err)
			return
		}

		deleted, err := api.tables.Delete(r.Context(), id.Company.ID, table, filters)
		if err != nil {
			api.fail(w, r, id, table, audit.OpDelete, err)
			return
		}

		api.written(r, id, table, events.OpDelete, audit.OpDelete, deleted)
		respondWithJSON(w, http.StatusOK, deleted)
	}
}

// prepareInsert checks every column of row and fills in the id, the owner
// and rendered markdown.
func prepareInsert(id *identity.Identity, table *schema.Table, scope schema.Scope, row store.Row) error {
	for c := range row {
		if err := table.CheckWrite(schema.OpInsert, scope, id.Role, c); err != nil {
			return err
		}
	}

	if owner := table.OwnerColumn; owner != "" && owner != schema.PrimaryKey {
		v, ok := row[owner]
		switch {
		case !ok || v == nil:
			row[owner] = id.ProfileID
		case scope == schema.ScopeOwn && fmt.Sprint(v) != id.ProfileID:
			return fmt.Errorf("%w: %s must be your own profile", schema.ErrForbidden, owner)
		}
	}

	if v, ok := row[schema.PrimaryKey]; !ok || v == nil || v == "" {
		row[schema.PrimaryKey] = uuid.NewString()
	}

	return table.RenderRow(row)
}

// writeFilters parses the filters of an update or delete and, for callers
// limited to their own rows, pins the owner column to the caller.
func writeFilters(r *http.Request, id *identity.Identity, table *schema.Table, scope schema.Scope) ([]query.Filter, error) {
	q, err := query.Parse(r.URL.Query())
	if err != nil {
		return nil, err
	}
	if len(q.Filters) == 0 {
		return nil, query.ErrUnfiltered
	}
	if err := query.ValidateFilters(table, q.Filters); err != nil {
		return nil, err
	}
	filters := q.Filters
	if scope == schema.ScopeOwn {
		filters = append(filters, query.Filter{Column: table.OwnerColumn, Op: query.Eq, Value: id.ProfileID})
	}
	return filters, nil
}

// decodeRows accepts a single JSON object or an array of objects.
func decodeRows(body []byte) ([]store.Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errs.NewBadRequestError("request body is required")
	}
	if trimmed[0] == '[' {
		var rows []store.Row
		if err := decodeJSON(trimmed, &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, errs.NewBadRequestError("no rows to insert")
		}
		return rows, nil
	}
	var row store.Row
	if err := decodeJSON(trimmed, &row); err != nil {
		return nil, err
	}
	return []store.Row{row}, nil
}

// decodeJSON keeps numbers as json.Number so large integers and decimals
// reach Postgres unchanged.
func decodeJSON(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return errs.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

func rowIDs(rows []store.Row) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		switch v := row[schema.PrimaryKey].(type) {
		case nil:
		case string:
			ids = append(ids, v)
		case []byte:
			ids = append(ids, string(v))
		case int64:
			ids = append(ids, strconv.FormatInt(v, 10))
		default:
			ids = append(ids, fmt.Sprint(v))
		}
	}
	return ids
}

// written publishes the change and records the audit event of a successful
// write. Publish failures are logged; the write has already committed.
func (api *tableAPI) written(r *http.Request, id *identity.Identity, table *schema.Table, op events.Op, auditOp string, rows []store.Row) {
	ids := rowIDs(rows)
	if len(rows) > 0 {
		change := events.NewChange(id.Company, table.Name, op, ids)
		if err := api.publisher.Publish(r.Context(), change); err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("table", table.Name).Msg("failed to publish change")
		}
	}
	api.auditor.Log(audit.TableEvent{
		Actor:     audit.ActorOf(id),
		Table:     table.Name,
		Operation: auditOp,
		RowIDs:    ids,
		Rows:      len(rows),
		Success:   true,
	})
}

func (api *tableAPI) fail(w http.ResponseWriter, r *http.Request, id *identity.Identity, table *schema.Table, auditOp string, err error) {
	if id != nil {
		name := mux.Vars(r)["table"]
		if table != nil {
			name = table.Name
		}
		api.auditor.Log(audit.TableEvent{
			Actor:        audit.ActorOf(id),
			Table:        name,
			Operation:    auditOp,
			ErrorMessage: httpError(err).Message,
		})
	}
	respondWithError(w, r, err)
}
