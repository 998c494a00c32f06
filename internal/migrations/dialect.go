package migrations

import (
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// IsSQLite reports whether db speaks the SQLite dialect. Migrations branch on
// this where the two engines diverge (autoincrement and FK syntax).
func IsSQLite(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.SQLite
}

// IsPostgreSQL reports whether db speaks the PostgreSQL dialect.
func IsPostgreSQL(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}
