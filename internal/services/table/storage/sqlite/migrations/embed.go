package migrations

import "embed"

// FS contains embedded SQLite migrations for the table audit log.
//
//go:embed *.sql
var FS embed.FS
