package migrations

import "embed"

// FS contains the embedded ledger schema migrations.
//
//go:embed *.sql
var FS embed.FS
