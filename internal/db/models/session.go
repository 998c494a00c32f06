package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Session tracks an active login. The bearer token itself is never stored;
// only its SHA-256 hash is persisted for lookup.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`

	ID        string    `bun:"id,pk,type:uuid"`
	TeacherID int64     `bun:"teacher_id,notnull"`
	TokenHash string    `bun:"token_hash,notnull,unique"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Expired reports whether the session is past its expiry instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
