// Package migrations embeds the clinic database schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
