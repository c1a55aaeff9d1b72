package community

import (
	"context"
	"errors"
	"fmt"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
)

// Page is one range of a counted listing.
type Page[T any] struct {
	Rows  []T   `json:"rows"`
	Total int64 `json:"total"`
}

// ListOptions pages a listing. A zero Limit uses defaultPageSize.
type ListOptions struct {
	Limit  int
	Offset int
}

const defaultPageSize = 20

func (o ListOptions) bounds() (from, to int) {
	limit := o.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	return o.Offset, o.Offset + limit - 1
}

func (o ListOptions) key() string {
	from, to := o.bounds()
	return fmt.Sprintf("%d-%d", from, to)
}

func selectRows[T any](ctx context.Context, tq *client.TableQuery) ([]T, error) {
	rows := []T{}
	if _, err := tq.Execute(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func selectPage[T any](ctx context.Context, tq *client.TableQuery, opts ListOptions) (Page[T], error) {
	rows := []T{}
	total, err := tq.Range(opts.bounds()).Count().Execute(ctx, &rows)
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Rows: rows, Total: total}, nil
}

// selectOne returns nil when no row matched.
func selectOne[T any](ctx context.Context, tq *client.TableQuery) (*T, error) {
	var row T
	if err := tq.Single(ctx, &row); err != nil {
		if errors.Is(err, client.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// first unwraps the single row a write returned.
func first[T any](rows []T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, client.ErrNoRows
	}
	return &rows[0], nil
}

func insertRow[T any](ctx context.Context, d *Data, table string, row interface{}) (*T, error) {
	var rows []T
	err := d.client.From(table).Insert(ctx, row, &rows)
	return first(rows, err)
}

func updateRow[T any](ctx context.Context, d *Data, table, id string, set interface{}) (*T, error) {
	var rows []T
	err := d.client.From(table).Eq("id", id).Update(ctx, set, &rows)
	return first(rows, err)
}

func deleteRow(ctx context.Context, d *Data, table, id string) (struct{}, error) {
	var rows []map[string]interface{}
	if err := d.client.From(table).Eq("id", id).Delete(ctx, &rows); err != nil {
		return struct{}{}, err
	}
	if len(rows) == 0 {
		return struct{}{}, client.ErrNoRows
	}
	return struct{}{}, nil
}

// call invokes fn and decodes its result into a new R.
func call[R any](ctx context.Context, d *Data, fn string, args interface{}) (R, error) {
	var out R
	err := d.client.RPC(ctx, fn, args, &out)
	return out, err
}
