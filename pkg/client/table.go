package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/doodlesbykumbi/community-in-go/pkg/query"
)

// TableQuery builds a request against /rest/{company}/{table}. Builder
// methods record the first error and Execute returns it.
type TableQuery struct {
	c      *Client
	table  string
	q      query.Query
	ranged bool
	err    error
}

// From starts a query on table.
func (c *Client) From(table string) *TableQuery {
	tq := &TableQuery{c: c, table: table}
	if table == "" {
		tq.err = errors.New("table name is required")
	}
	return tq
}

// Query returns a copy of the query built so far.
func (tq *TableQuery) Query() *query.Query {
	return tq.q.Clone()
}

func (tq *TableQuery) Select(columns ...string) *TableQuery {
	tq.q.Columns = append(tq.q.Columns, columns...)
	return tq
}

func (tq *TableQuery) filter(column string, op query.Operator, negate bool, value interface{}) *TableQuery {
	f := query.Filter{Column: column, Op: op, Negate: negate}
	if op == query.In {
		vs, err := formatValues(value)
		if err != nil {
			tq.setErr(fmt.Errorf("%s: %w", column, err))
			return tq
		}
		f.Values = vs
	} else {
		f.Value = formatValue(value)
	}
	tq.q.Where(f)
	return tq
}

func (tq *TableQuery) Eq(column string, value interface{}) *TableQuery {
	return tq.filter(column, query.Eq, false, value)
}

func (tq *TableQuery) Neq(column string, value interface{}) *TableQuery {
	return tq.filter(column, query.Neq, false, value)
}

func (tq *TableQuery) Gt(column string, value interface{}) *TableQuery {
	return tq.filter(column, query.Gt, false, value)
}

func (tq *TableQuery) Gte(column string, value interface{}) *TableQuery {
	return tq.filter(column, query.Gte, false, value)
}

func (tq *TableQuery) Lt(column string, value interface{}) *TableQuery {
	return tq.filter(column, query.Lt, false, value)
}

func (tq *TableQuery) Lte(column string, value interface{}) *TableQuery {
	return tq.filter(column, query.Lte, false, value)
}

// Like matches column against a SQL pattern, with % as the wildcard.
func (tq *TableQuery) Like(column, pattern string) *TableQuery {
	return tq.filter(column, query.Like, false, pattern)
}

func (tq *TableQuery) ILike(column, pattern string) *TableQuery {
	return tq.filter(column, query.ILike, false, pattern)
}

// In matches column against a list. values may be a slice or individual
// arguments.
func (tq *TableQuery) In(column string, values ...interface{}) *TableQuery {
	if len(values) == 1 {
		return tq.filter(column, query.In, false, values[0])
	}
	return tq.filter(column, query.In, false, values)
}

// Is tests column against null, true or false.
func (tq *TableQuery) Is(column string, value interface{}) *TableQuery {
	return tq.filter(column, query.Is, false, value)
}

// Not adds the negation of an op filter, e.g. Not("status", query.In, []string{"a", "b"}).
func (tq *TableQuery) Not(column string, op query.Operator, value interface{}) *TableQuery {
	return tq.filter(column, op, true, value)
}

type OrderOption func(*query.Order)

func Descending() OrderOption {
	return func(o *query.Order) { o.Desc = true }
}

func NullsFirst() OrderOption {
	return func(o *query.Order) { o.Nulls = query.NullsFirst }
}

func NullsLast() OrderOption {
	return func(o *query.Order) { o.Nulls = query.NullsLast }
}

// Order sorts by column, ascending unless Descending is given. Calls
// accumulate.
func (tq *TableQuery) Order(column string, opts ...OrderOption) *TableQuery {
	o := query.Order{Column: column}
	for _, opt := range opts {
		opt(&o)
	}
	tq.q.Orders = append(tq.q.Orders, o)
	return tq
}

func (tq *TableQuery) Limit(n int) *TableQuery {
	if n < 0 {
		tq.setErr(fmt.Errorf("%w: negative limit", query.ErrInvalidRange))
		return tq
	}
	tq.q.Limit = n
	return tq
}

// Range restricts the result to rows from through to, both inclusive and
// zero-based. It is sent as a Range header.
func (tq *TableQuery) Range(from, to int) *TableQuery {
	if from < 0 || to < from {
		tq.setErr(fmt.Errorf("%w: %d-%d", query.ErrInvalidRange, from, to))
		return tq
	}
	tq.ranged = true
	tq.q.Offset = from
	tq.q.Limit = to - from + 1
	return tq
}

// Count asks the server for the total number of matching rows, which
// Execute returns.
func (tq *TableQuery) Count() *TableQuery {
	tq.q.Count = true
	return tq
}

func (tq *TableQuery) setErr(err error) {
	if tq.err == nil {
		tq.err = err
	}
}

func (tq *TableQuery) path() string {
	return fmt.Sprintf("/rest/%s/%s", tq.c.company, url.PathEscape(tq.table))
}

// Execute runs the select and decodes the rows into dest, which should be a
// pointer to a slice. It returns the total row count when Count was set and
// -1 otherwise.
func (tq *TableQuery) Execute(ctx context.Context, dest interface{}) (int64, error) {
	if tq.err != nil {
		return 0, tq.err
	}
	values := tq.q.Values()
	header := http.Header{}
	if tq.ranged {
		values.Del(query.ParamLimit)
		values.Del(query.ParamOffset)
		header.Set(query.HeaderRange, query.FormatRange(tq.q.Offset, tq.q.Limit))
	}
	if tq.q.Count {
		header.Set(query.HeaderPrefer, query.PreferCountExact)
	}

	resp, err := tq.c.do(ctx, request{
		method: http.MethodGet,
		path:   tq.path(),
		query:  values,
		header: header,
	})
	if err != nil {
		return 0, err
	}
	total := int64(-1)
	if cr := resp.Header.Get(query.HeaderContentRange); cr != "" {
		total = query.ParseContentRange(cr)
	}
	if err := decodeBody(resp, dest); err != nil {
		return 0, err
	}
	return total, nil
}

// Single runs the select and decodes the first row into dest. It returns
// ErrNoRows when nothing matched.
func (tq *TableQuery) Single(ctx context.Context, dest interface{}) error {
	if !tq.ranged && tq.q.Limit == 0 {
		tq.q.Limit = 1
	}
	var rows []json.RawMessage
	if _, err := tq.Execute(ctx, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNoRows
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Insert creates one row or a slice of rows and decodes the created rows
// into dest. Filters are ignored.
func (tq *TableQuery) Insert(ctx context.Context, rows interface{}, dest interface{}) error {
	if tq.err != nil {
		return tq.err
	}
	body, err := jsonBody(rows)
	if err != nil {
		return err
	}
	resp, err := tq.c.do(ctx, request{
		method:      http.MethodPost,
		path:        tq.path(),
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return err
	}
	return decodeBody(resp, dest)
}

// Update sets columns on every row matching the filters and decodes the
// updated rows into dest. At least one filter is required.
func (tq *TableQuery) Update(ctx context.Context, set interface{}, dest interface{}) error {
	return tq.write(ctx, http.MethodPatch, set, dest)
}

// Delete removes every row matching the filters and decodes the deleted rows
// into dest. At least one filter is required.
func (tq *TableQuery) Delete(ctx context.Context, dest interface{}) error {
	return tq.write(ctx, http.MethodDelete, nil, dest)
}

func (tq *TableQuery) write(ctx context.Context, method string, set interface{}, dest interface{}) error {
	if tq.err != nil {
		return tq.err
	}
	if len(tq.q.Filters) == 0 {
		return query.ErrUnfiltered
	}
	values := url.Values{}
	for _, f := range tq.q.Filters {
		values.Add(f.Column, f.Encode())
	}
	req := request{method: method, path: tq.path(), query: values}
	if set != nil {
		body, err := jsonBody(set)
		if err != nil {
			return err
		}
		req.body = body
		req.contentType = "application/json"
	}
	resp, err := tq.c.do(ctx, req)
	if err != nil {
		return err
	}
	return decodeBody(resp, dest)
}

// formatValue renders a filter value the way the server parses it.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func formatValues(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...), nil
	case []interface{}:
		out := make([]string, len(t))
		for i, x := range t {
			out[i] = formatValue(x)
		}
		return out, nil
	case []int:
		out := make([]string, len(t))
		for i, x := range t {
			out[i] = strconv.Itoa(x)
		}
		return out, nil
	case string:
		return []string{t}, nil
	default:
		return nil, fmt.Errorf("%w: in expects a list, got %T", query.ErrInvalidValue, v)
	}
}
