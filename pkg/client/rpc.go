package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Function describes a server function available to the caller.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MinRole     string `json:"min_role"`
}

// RPC calls the named server function with args encoded as a JSON object
// and decodes its result into dest. Nil args send an empty object; a nil
// dest discards the result.
func (c *Client) RPC(ctx context.Context, fn string, args interface{}, dest interface{}) error {
	body, err := jsonBody(args)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/rpc/%s/%s", c.company, url.PathEscape(fn)),
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return err
	}
	return decodeBody(resp, dest)
}

// Functions lists the functions the caller may call.
func (c *Client) Functions(ctx context.Context) ([]Function, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/rpc/%s", c.company),
	})
	if err != nil {
		return nil, err
	}
	var fns []Function
	if err := decodeBody(resp, &fns); err != nil {
		return nil, err
	}
	return fns, nil
}
