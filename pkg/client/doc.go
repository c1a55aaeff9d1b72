// Package client is the Go SDK for the community server.
//
// A Client is bound to one company. Every call it makes carries that
// company's slug in the URL, so nothing is shared between tenants:
//
//	c, err := client.New("https://community.example.com", "acme")
//	if err != nil { ... }
//	if _, err := c.Authenticate(ctx, "admin", apiKey); err != nil { ... }
//
//	var posts []model.Post
//	total, err := c.From("posts").
//		Select("id", "title", "created_at").
//		Eq("space_id", spaceID).
//		Order("created_at", client.Descending()).
//		Range(0, 19).
//		Count().
//		Execute(ctx, &posts)
//
// Named functions are called with RPC and files go through Storage. Failed
// requests return a *Error carrying the server's status, code and field
// errors.
package client
