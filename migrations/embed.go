// Package migrations embeds the sqlite schema files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
