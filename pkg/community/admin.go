package community

import (
	"context"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
)

// Stats summarizes the company for the admin dashboard.
func (d *Data) Stats(ctx context.Context) (*rpc.CompanyStats, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(keyStats),
		stale:   staleDefault,
		failure: "Could not load the statistics",
	}, func(ctx context.Context) (*rpc.CompanyStats, error) {
		var stats rpc.CompanyStats
		if err := d.client.RPC(ctx, "company_stats", nil, &stats); err != nil {
			return nil, err
		}
		return &stats, nil
	})
}

// Functions lists the rpc functions the server exposes.
func (d *Data) Functions(ctx context.Context) ([]client.Function, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(keyFunctions),
		stale:   staleLong,
		failure: "Could not load the function list",
	}, func(ctx context.Context) ([]client.Function, error) {
		return d.client.Functions(ctx)
	})
}

// RotateAPIKey issues a new API key for login. The old key stops working
// immediately.
func (d *Data) RotateAPIKey(ctx context.Context, login string) (string, error) {
	return mutate(ctx, d, mutation{
		success: "API key rotated",
		failure: "Could not rotate the API key",
	}, func(ctx context.Context) (string, error) {
		return d.client.RotateAPIKey(ctx, login)
	})
}
