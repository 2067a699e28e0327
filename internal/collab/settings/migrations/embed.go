package migrations

import "embed"

// FS contains embedded SQLite migrations for launcher settings.
//
//go:embed *.sql
var FS embed.FS
