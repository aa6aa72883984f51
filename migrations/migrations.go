// Package migrations embeds the goose SQL migrations so the binary can bring
// any database up to the current schema without shipping files alongside it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
