// Package migrations holds the SQLite schema for stored effect records
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
