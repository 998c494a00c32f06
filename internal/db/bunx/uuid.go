package bunx

import "github.com/google/uuid"

// NewUUIDv7 generates a time-ordered UUIDv7 string for database primary keys
// that are not plain autoincrement rows (currently session ids). Time-ordered
// values keep the unique index append-mostly on both SQLite and PostgreSQL.
//
// Panics only on entropy exhaustion, at which point nothing else in the
// process would work either.
func NewUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}
