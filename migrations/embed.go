// Package migrations embeds the SQL migrations of the local state database.
package migrations

import "embed"

// FS holds goose migrations applied by internal/migrate.
//
//go:embed *.sql
var FS embed.FS
