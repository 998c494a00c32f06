// Package migrations holds the versioned schema and seed migrations applied
// through bun/migrate by the db command group.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry every migration file registers into via init().
var Migrations = migrate.NewMigrations()
