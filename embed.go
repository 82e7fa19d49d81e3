package divebook

import "embed"

// MigrationsFS embeds the SQL migrations so the binary can run them at startup.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
