package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Operator is a filter comparison.
type Operator string

const (
	Eq    Operator = "eq"
	Neq   Operator = "neq"
	Gt    Operator = "gt"
	Gte   Operator = "gte"
	Lt    Operator = "lt"
	Lte   Operator = "lte"
	Like  Operator = "like"
	ILike Operator = "ilike"
	In    Operator = "in"
	Is    Operator = "is"
)

var operators = map[Operator]string{
	Eq:    "=",
	Neq:   "<>",
	Gt:    ">",
	Gte:   ">=",
	Lt:    "<",
	Lte:   "<=",
	Like:  "LIKE",
	ILike: "ILIKE",
}

var (
	ErrUnknownOperator = errors.New("unknown operator")
	ErrInvalidValue    = errors.New("invalid filter value")
	ErrInvalidOrder    = errors.New("invalid order")
	ErrInvalidRange    = errors.New("invalid range")
	ErrUnfiltered      = errors.New("update and delete require at least one filter")
	ErrUnknownColumn   = errors.New("unknown column")
)

// Filter is one condition. Values is used by In, Value by everything else.
type Filter struct {
	Column string
	Op     Operator
	Negate bool
	Value  string
	Values []string
}

// Nulls controls NULL placement in an Order.
type Nulls string

const (
	NullsDefault Nulls = ""
	NullsFirst   Nulls = "nullsfirst"
	NullsLast    Nulls = "nullslast"
)

type Order struct {
	Column string
	Desc   bool
	Nulls  Nulls
}

// Query is a parsed table query. A zero Limit means "not set".
type Query struct {
	Columns []string
	Filters []Filter
	Orders  []Order
	Limit   int
	Offset  int
	Count   bool
}

// Clone returns a deep copy of q.
func (q *Query) Clone() *Query {
	c := &Query{Limit: q.Limit, Offset: q.Offset, Count: q.Count}
	c.Columns = append([]string(nil), q.Columns...)
	c.Orders = append([]Order(nil), q.Orders...)
	for _, f := range q.Filters {
		f.Values = append([]string(nil), f.Values...)
		c.Filters = append(c.Filters, f)
	}
	return c
}

// Where appends a filter and returns q.
func (q *Query) Where(f Filter) *Query {
	q.Filters = append(q.Filters, f)
	return q
}

// FilterValue returns the value of the first eq filter on column.
func (q *Query) FilterValue(column string) (string, bool) {
	for _, f := range q.Filters {
		if f.Column == column && f.Op == Eq && !f.Negate {
			return f.Value, true
		}
	}
	return "", false
}

func parseOperator(s string) (Operator, error) {
	op := Operator(s)
	if _, ok := operators[op]; ok || op == In || op == Is {
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

func validIsValue(v string) bool {
	return v == "null" || v == "true" || v == "false"
}

// parseFilter parses "[not.]op.value" for column.
func parseFilter(column, raw string) (Filter, error) {
	f := Filter{Column: column}
	if strings.HasPrefix(raw, "not.") {
		f.Negate = true
		raw = strings.TrimPrefix(raw, "not.")
	}
	opStr, value, ok := strings.Cut(raw, ".")
	if !ok {
		return f, fmt.Errorf("%w: %s=%s", ErrInvalidValue, column, raw)
	}
	op, err := parseOperator(opStr)
	if err != nil {
		return f, err
	}
	f.Op = op
	switch op {
	case In:
		values, err := parseList(value)
		if err != nil {
			return f, err
		}
		f.Values = values
	case Is:
		if !validIsValue(value) {
			return f, fmt.Errorf("%w: is.%s", ErrInvalidValue, value)
		}
		f.Value = value
	default:
		f.Value = value
	}
	return f, nil
}

// parseList parses "(a,b,"c,d")".
func parseList(s string) ([]string, error) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("%w: in.%s", ErrInvalidValue, s)
	}
	s = s[1 : len(s)-1]
	values := []string{}
	if s == "" {
		return values, nil
	}
	var cur strings.Builder
	quoted := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && quoted && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			values = append(values, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if quoted {
		return nil, fmt.Errorf("%w: unterminated quote in in.(%s)", ErrInvalidValue, s)
	}
	return append(values, cur.String()), nil
}

func formatList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == "" || strings.ContainsAny(v, `,()"\`) {
			v = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) + `"`
		}
		parts[i] = v
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Encode returns the wire form of f's value, e.g. "not.in.(a,b)".
func (f Filter) Encode() string {
	var sb strings.Builder
	if f.Negate {
		sb.WriteString("not.")
	}
	sb.WriteString(string(f.Op))
	sb.WriteByte('.')
	if f.Op == In {
		sb.WriteString(formatList(f.Values))
	} else {
		sb.WriteString(f.Value)
	}
	return sb.String()
}

func parseOrder(s string) ([]Order, error) {
	var orders []Order
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ".")
		o := Order{Column: fields[0]}
		for _, mod := range fields[1:] {
			switch mod {
			case "asc":
				o.Desc = false
			case "desc":
				o.Desc = true
			case string(NullsFirst):
				o.Nulls = NullsFirst
			case string(NullsLast):
				o.Nulls = NullsLast
			default:
				return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, part)
			}
		}
		if o.Column == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, part)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Encode returns the wire form of o, e.g. "created_at.desc.nullslast".
func (o Order) Encode() string {
	s := o.Column
	if o.Desc {
		s += ".desc"
	} else {
		s += ".asc"
	}
	if o.Nulls != NullsDefault {
		s += "." + string(o.Nulls)
	}
	return s
}

func parseNonNegative(key, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%s", ErrInvalidValue, key, s)
	}
	return n, nil
}
