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

// BunTeacherRepository implements TeacherRepository using Bun ORM.
type BunTeacherRepository struct {
	db *bun.DB
}

// NewBunTeacherRepository creates a new Bun-based teacher repository.
func NewBunTeacherRepository(db *bun.DB) *BunTeacherRepository {
	return &BunTeacherRepository{db: db}
}

// Create inserts a new teacher account.
func (r *BunTeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if err := teacher.ValidateForCreate(); err != nil {
		return err
	}
	if _, err := r.db.NewInsert().Model(teacher).Exec(ctx); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// GetByID retrieves a teacher by id. Returns (nil, nil) when absent.
func (r *BunTeacherRepository) GetByID(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher := new(models.Teacher)
	err := r.db.NewSelect().Model(teacher).Where("t.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}
	return teacher, nil
}

// GetByUsername retrieves a teacher by login name. Returns (nil, nil) when absent.
func (r *BunTeacherRepository) GetByUsername(ctx context.Context, username string) (*models.Teacher, error) {
	teacher := new(models.Teacher)
	err := r.db.NewSelect().Model(teacher).Where("username = ?", username).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher by username: %w", err)
	}
	return teacher, nil
}

// Update rewrites the mutable profile fields (name, email, role).
func (r *BunTeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	result, err := r.db.NewUpdate().
		Model(teacher).
		Column("name", "email", "role").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("teacher not found: %d", teacher.ID)
	}
	return nil
}

// UpdateLastLogin stamps the last_login_at column.
func (r *BunTeacherRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.NewUpdate().
		Model((*models.Teacher)(nil)).
		Set("last_login_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Delete removes the account and cascades its assignments and sessions in a
// single transaction, so a deleted teacher can neither authenticate nor
// appear in any class roster afterwards.
func (r *BunTeacherRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewDelete().Model((*models.Teacher)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete teacher: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}
		deleted = true

		if _, err := tx.NewDelete().Model((*models.ClassAssignment)(nil)).Where("teacher_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("cascade assignments: %w", err)
		}
		if _, err := tx.NewDelete().Model((*models.Session)(nil)).Where("teacher_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("cascade sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// List retrieves all teacher accounts ordered by name.
func (r *BunTeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	err := r.db.NewSelect().Model(&teachers).Order("name ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// Count returns the number of teacher accounts.
func (r *BunTeacherRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.db.NewSelect().Model((*models.Teacher)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return int64(count), nil
}
