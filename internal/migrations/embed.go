// Package migrations provides embedded SQL migration files and a runner
// that tracks applied migrations in scanner._migrations, adapted from the
// teacher's go:embed pattern.
package migrations

import "embed"

//go:embed sql/*.up.sql
var FS embed.FS
