package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunSessionRepository implements SessionRepository using Bun ORM.
type BunSessionRepository struct {
	db *bun.DB
}

// NewBunSessionRepository creates a new Bun-based session repository.
func NewBunSessionRepository(db *bun.DB) *BunSessionRepository {
	return &BunSessionRepository{db: db}
}

// Create stores a new session row.
func (r *BunSessionRepository) Create(ctx context.Context, session *models.Session) error {
	_, err := r.db.NewInsert().Model(session).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByTokenHash retrieves the session holding the given token hash.
// Returns (nil, nil) when absent.
func (r *BunSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	session := new(models.Session)
	err := r.db.NewSelect().
		Model(session).
		Where("token_hash = ?", tokenHash).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by token hash: %w", err)
	}
	return session, nil
}

// DeleteByTokenHash removes the session holding the given token hash.
func (r *BunSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("token_hash = ?", tokenHash).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session by token hash: %w", err)
	}
	return nil
}

// DeleteByTeacherID removes every session belonging to the teacher.
func (r *BunSessionRepository) DeleteByTeacherID(ctx context.Context, teacherID int64) error {
	_, err := r.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("teacher_id = ?", teacherID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete sessions by teacher: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that expired at or before now and
// reports how many rows were purged.
func (r *BunSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return purged, nil
}
