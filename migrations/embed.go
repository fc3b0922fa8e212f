// Package migrations embeds the SQL schema applied by "hospdash migrate".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
