package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Reserved parameter names that are not column filters.
const (
	ParamSelect = "select"
	ParamOrder  = "order"
	ParamLimit  = "limit"
	ParamOffset = "offset"
)

func isReserved(key string) bool {
	switch key {
	case ParamSelect, ParamOrder, ParamLimit, ParamOffset:
		return true
	}
	return false
}

// Parse builds a Query from URL parameters. Filters are returned ordered by
// column name so parsing is deterministic.
func Parse(values url.Values) (*Query, error) {
	q := &Query{}

	if sel := values.Get(ParamSelect); sel != "" && sel != "*" {
		for _, c := range strings.Split(sel, ",") {
			if c = strings.TrimSpace(c); c != "" {
				q.Columns = append(q.Columns, c)
			}
		}
	}
	if order := values.Get(ParamOrder); order != "" {
		orders, err := parseOrder(order)
		if err != nil {
			return nil, err
		}
		q.Orders = orders
	}
	if limit := values.Get(ParamLimit); limit != "" {
		n, err := parseNonNegative(ParamLimit, limit)
		if err != nil {
			return nil, err
		}
		q.Limit = n
	}
	if offset := values.Get(ParamOffset); offset != "" {
		n, err := parseNonNegative(ParamOffset, offset)
		if err != nil {
			return nil, err
		}
		q.Offset = n
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if !isReserved(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, raw := range values[k] {
			f, err := parseFilter(k, raw)
			if err != nil {
				return nil, err
			}
			q.Filters = append(q.Filters, f)
		}
	}
	return q, nil
}

// Values encodes q as URL parameters. Count is carried by the Prefer header,
// not by a parameter.
func (q *Query) Values() url.Values {
	v := url.Values{}
	if len(q.Columns) > 0 {
		v.Set(ParamSelect, strings.Join(q.Columns, ","))
	}
	if len(q.Orders) > 0 {
		parts := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			parts[i] = o.Encode()
		}
		v.Set(ParamOrder, strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		v.Set(ParamLimit, strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set(ParamOffset, strconv.Itoa(q.Offset))
	}
	for _, f := range q.Filters {
		v.Add(f.Column, f.Encode())
	}
	return v
}

// Range header handling.
const (
	HeaderRange        = "Range"
	HeaderContentRange = "Content-Range"
	HeaderPrefer       = "Prefer"
	PreferCountExact   = "count=exact"
)

// ParseRange parses an inclusive "from-to" range into offset and limit. An
// open-ended "from-" yields a zero limit.
func ParseRange(s string) (offset, limit int, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "items=")
	fromStr, toStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	from, err := strconv.Atoi(fromStr)
	if err != nil || from < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	if toStr == "" {
		return from, 0, nil
	}
	to, err := strconv.Atoi(toStr)
	if err != nil || to < from {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return from, to - from + 1, nil
}

// FormatRange is the inverse of ParseRange.
func FormatRange(offset, limit int) string {
	if limit <= 0 {
		return fmt.Sprintf("%d-", offset)
	}
	return fmt.Sprintf("%d-%d", offset, offset+limit-1)
}

// ContentRange formats the Content-Range response header for n rows
// starting at offset. A negative total is written as "*".
func ContentRange(offset, n int, total int64) string {
	totalStr := "*"
	if total >= 0 {
		totalStr = strconv.FormatInt(total, 10)
	}
	if n == 0 {
		return "*/" + totalStr
	}
	return fmt.Sprintf("%d-%d/%s", offset, offset+n-1, totalStr)
}

// ParseContentRange extracts the total from a Content-Range header. It
// returns -1 when the total is unknown.
func ParseContentRange(s string) int64 {
	_, totalStr, ok := strings.Cut(s, "/")
	if !ok || totalStr == "*" {
		return -1
	}
	total, err := strconv.ParseInt(totalStr, 10, 64)
	if err != nil {
		return -1
	}
	return total
}

// WantsCount reports whether a Prefer header asks for an exact count.
func WantsCount(prefer string) bool {
	for _, p := range strings.Split(prefer, ",") {
		if strings.TrimSpace(p) == PreferCountExact {
			return true
		}
	}
	return false
}
