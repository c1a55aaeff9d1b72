package query

import (
	"fmt"

	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
)

// Validate checks every column q references against table, and applies the
// default and maximum row limits.
func (q *Query) Validate(table *schema.Table, defaultLimit, maxLimit int) error {
	for _, c := range q.Columns {
		if !table.HasColumn(c) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table.Name, c)
		}
	}
	if err := ValidateFilters(table, q.Filters); err != nil {
		return err
	}
	for _, o := range q.Orders {
		if !table.HasColumn(o.Column) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table.Name, o.Column)
		}
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// ValidateFilters checks filter columns and operators against table.
func ValidateFilters(table *schema.Table, filters []Filter) error {
	for _, f := range filters {
		if !table.HasColumn(f.Column) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table.Name, f.Column)
		}
		if _, err := parseOperator(string(f.Op)); err != nil {
			return err
		}
		if f.Op == Is && !validIsValue(f.Value) {
			return fmt.Errorf("%w: is.%s", ErrInvalidValue, f.Value)
		}
	}
	return nil
}
