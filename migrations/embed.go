package migrations

import "embed"

// FS holds the goose migrations so the CLI binary carries its own schema.
//
//go:embed *.sql
var FS embed.FS
