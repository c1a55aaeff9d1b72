package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// Statement is a parameterised SQL statement.
type Statement struct {
	SQL  string
	Args []interface{}
}

// Quote quotes a SQL identifier.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quoteAll(idents []string) string {
	quoted := make([]string, len(idents))
	for i, c := range idents {
		quoted[i] = Quote(c)
	}
	return strings.Join(quoted, ", ")
}

// likePattern maps the URL-friendly "*" wildcard onto SQL "%".
func likePattern(v string) string {
	return strings.ReplaceAll(v, "*", "%")
}

func filterSQL(f Filter) (string, []interface{}) {
	col := Quote(f.Column)
	var expr string
	var args []interface{}

	switch f.Op {
	case In:
		if len(f.Values) == 0 {
			expr = "FALSE"
			break
		}
		placeholders := make([]string, len(f.Values))
		for i, v := range f.Values {
			placeholders[i] = "?"
			args = append(args, v)
		}
		expr = fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", "))
	case Is:
		expr = fmt.Sprintf("%s IS %s", col, strings.ToUpper(f.Value))
	case Like, ILike:
		expr = fmt.Sprintf("%s %s ?", col, operators[f.Op])
		args = append(args, likePattern(f.Value))
	default:
		expr = fmt.Sprintf("%s %s ?", col, operators[f.Op])
		args = append(args, f.Value)
	}

	if f.Negate {
		expr = "NOT (" + expr + ")"
	}
	return expr, args
}

// where renders the tenant-scoped WHERE clause.
func where(company tenant.ID, filters []Filter) (string, []interface{}) {
	clauses := []string{Quote(schema.TenantColumn) + " = ?"}
	args := []interface{}{company.String()}
	for _, f := range filters {
		expr, fargs := filterSQL(f)
		clauses = append(clauses, expr)
		args = append(args, fargs...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderSQL(orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		s := Quote(o.Column)
		if o.Desc {
			s += " DESC"
		} else {
			s += " ASC"
		}
		switch o.Nulls {
		case NullsFirst:
			s += " NULLS FIRST"
		case NullsLast:
			s += " NULLS LAST"
		}
		parts[i] = s
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// Select builds the SELECT statement for q.
func Select(table string, company tenant.ID, q *Query) Statement {
	cols := "*"
	if len(q.Columns) > 0 {
		cols = quoteAll(q.Columns)
	}
	w, args := where(company, q.Filters)
	sql := "SELECT " + cols + " FROM " + Quote(table) + w + orderSQL(q.Orders)
	if q.Limit > 0 {
		sql += " LIMIT " + strconv.Itoa(q.Limit)
	}
	if q.Offset > 0 {
		sql += " OFFSET " + strconv.Itoa(q.Offset)
	}
	return Statement{SQL: sql, Args: args}
}

// Count builds the statement counting every row q's filters match,
// ignoring limit and offset.
func Count(table string, company tenant.ID, q *Query) Statement {
	w, args := where(company, q.Filters)
	return Statement{SQL: "SELECT count(*) FROM " + Quote(table) + w, Args: args}
}

// Insert builds a multi-row INSERT ... RETURNING *. Columns missing from a
// row get their DEFAULT. The tenant column is set on every row.
func Insert(table string, company tenant.ID, rows []map[string]interface{}) (Statement, error) {
	if len(rows) == 0 {
		return Statement{}, fmt.Errorf("%w: no rows to insert", ErrInvalidValue)
	}
	colSet := map[string]bool{}
	for _, row := range rows {
		for c := range row {
			if c != schema.TenantColumn {
				colSet[c] = true
			}
		}
	}
	cols := make([]string, 0, len(colSet)+1)
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	cols = append([]string{schema.TenantColumn}, cols...)

	var args []interface{}
	tuples := make([]string, len(rows))
	for i, row := range rows {
		vals := make([]string, len(cols))
		vals[0] = "?"
		args = append(args, company.String())
		for j, c := range cols[1:] {
			v, ok := row[c]
			if !ok {
				vals[j+1] = "DEFAULT"
				continue
			}
			nv, err := NormalizeValue(v)
			if err != nil {
				return Statement{}, err
			}
			vals[j+1] = "?"
			args = append(args, nv)
		}
		tuples[i] = "(" + strings.Join(vals, ", ") + ")"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING *",
		Quote(table), quoteAll(cols), strings.Join(tuples, ", "))
	return Statement{SQL: sql, Args: args}, nil
}

// Update builds UPDATE ... RETURNING * for the rows matching filters. When
// touch is set, updated_at is bumped as well.
func Update(table string, company tenant.ID, set map[string]interface{}, filters []Filter, touch bool) (Statement, error) {
	if len(filters) == 0 {
		return Statement{}, ErrUnfiltered
	}
	if len(set) == 0 {
		return Statement{}, fmt.Errorf("%w: nothing to update", ErrInvalidValue)
	}
	cols := make([]string, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	assignments := make([]string, 0, len(cols)+1)
	var args []interface{}
	for _, c := range cols {
		nv, err := NormalizeValue(set[c])
		if err != nil {
			return Statement{}, err
		}
		assignments = append(assignments, Quote(c)+" = ?")
		args = append(args, nv)
	}
	if touch {
		assignments = append(assignments, Quote("updated_at")+" = now()")
	}
	w, wargs := where(company, filters)
	sql := "UPDATE " + Quote(table) + " SET " + strings.Join(assignments, ", ") + w + " RETURNING *"
	return Statement{SQL: sql, Args: append(args, wargs...)}, nil
}

// Delete builds DELETE ... RETURNING * for the rows matching filters.
func Delete(table string, company tenant.ID, filters []Filter) (Statement, error) {
	if len(filters) == 0 {
		return Statement{}, ErrUnfiltered
	}
	w, args := where(company, filters)
	return Statement{SQL: "DELETE FROM " + Quote(table) + w + " RETURNING *", Args: args}, nil
}

// NormalizeValue converts a decoded JSON value into a SQL argument.
// Numbers are passed as text and cast by Postgres; objects and arrays are
// passed as JSON text.
func NormalizeValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil, string, bool:
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return string(raw), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
}
