// Package migrations holds the SQL schema of the run store, embedded into the binary.
package migrations

import "embed"

// FS contains every *.up.sql / *.down.sql pair, applied in version order by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
