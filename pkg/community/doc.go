// Package community is the data-access layer applications build on.
//
// Each read pairs a cache key with a table query or server function and a
// staleness window. Each write calls the server, then on success
// invalidates the cached queries it affects and reports a success
// notification. On failure it reports an error notification carrying the
// server's message when there is one. Every key starts with the company
// slug, so one cache can serve several companies without mixing them.
//
//	c, _ := client.New(baseURL, "acme")
//	_, _ = c.Authenticate(ctx, "alice", apiKey)
//	data := community.New(c, community.WithLogger(log))
//
//	page, err := data.Posts(ctx, community.PostFilter{SpaceID: spaceID})
//	_, err = data.CreateAccessGroup(ctx, community.AccessGroupInput{Name: "Alumni"})
//
// Changes made by other processes reach the cache through ApplyChange,
// which HandleChange exposes as an events.Handler for a Kafka subscriber.
package community
