// Package migrations embeds the SQL schema applied by the seed command.
package migrations

import "embed"

// Files holds the ordered *.sql migrations.
//
//go:embed *.sql
var Files embed.FS
