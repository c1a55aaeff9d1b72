// Package db holds the SQL migrations applied by communityctl.
package db

import "embed"

// Migrations contains the up and down migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
