package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunAssignmentRepository implements AssignmentRepository using Bun ORM.
// It operates on a bun.IDB so the same code serves both the plain database
// handle and a transaction view handed out by Transact.
type BunAssignmentRepository struct {
	db  *bun.DB
	idb bun.IDB
}

// NewBunAssignmentRepository creates a new Bun-based assignment repository.
func NewBunAssignmentRepository(db *bun.DB) *BunAssignmentRepository {
	return &BunAssignmentRepository{db: db, idb: db}
}

// Upsert writes the assignment row for (TeacherID, ClassName), overwriting
// the flag on an existing pairing.
func (r *BunAssignmentRepository) Upsert(ctx context.Context, assignment *models.ClassAssignment) error {
	_, err := r.idb.NewInsert().
		Model(assignment).
		On("CONFLICT (teacher_id, class_name) DO UPDATE").
		Set("is_class_teacher = EXCLUDED.is_class_teacher").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}
	return nil
}

// Remove deletes the row for the pair; removing an absent pair is not an error.
func (r *BunAssignmentRepository) Remove(ctx context.Context, teacherID int64, className string) error {
	_, err := r.idb.NewDelete().
		Model((*models.ClassAssignment)(nil)).
		Where("teacher_id = ?", teacherID).
		Where("class_name = ?", className).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("remove assignment: %w", err)
	}
	return nil
}

// GetPair retrieves the assignment row for (teacherID, className).
// Returns (nil, nil) when absent.
func (r *BunAssignmentRepository) GetPair(ctx context.Context, teacherID int64, className string) (*models.ClassAssignment, error) {
	assignment := new(models.ClassAssignment)
	err := r.idb.NewSelect().
		Model(assignment).
		Where("teacher_id = ?", teacherID).
		Where("class_name = ?", className).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assignment pair: %w", err)
	}
	return assignment, nil
}

// GetByTeacher retrieves every assignment held by the teacher.
func (r *BunAssignmentRepository) GetByTeacher(ctx context.Context, teacherID int64) ([]models.ClassAssignment, error) {
	var assignments []models.ClassAssignment
	err := r.idb.NewSelect().
		Model(&assignments).
		Where("teacher_id = ?", teacherID).
		Order("class_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get assignments by teacher: %w", err)
	}
	return assignments, nil
}

// GetByClass retrieves every assignment for the class, CT row first.
func (r *BunAssignmentRepository) GetByClass(ctx context.Context, className string) ([]models.ClassAssignment, error) {
	var assignments []models.ClassAssignment
	err := r.idb.NewSelect().
		Model(&assignments).
		ColumnExpr("tc.*").
		ColumnExpr("t.name AS teacher_name").
		Join("JOIN teachers AS t ON t.id = tc.teacher_id").
		Where("tc.class_name = ?", className).
		OrderExpr("tc.is_class_teacher DESC, t.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get assignments by class: %w", err)
	}
	return assignments, nil
}

// GetAll retrieves every assignment joined with the owning teacher's name.
func (r *BunAssignmentRepository) GetAll(ctx context.Context) ([]models.ClassAssignment, error) {
	var assignments []models.ClassAssignment
	err := r.idb.NewSelect().
		Model(&assignments).
		ColumnExpr("tc.*").
		ColumnExpr("t.name AS teacher_name").
		Join("JOIN teachers AS t ON t.id = tc.teacher_id").
		OrderExpr("tc.class_name ASC, tc.is_class_teacher DESC, t.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all assignments: %w", err)
	}
	return assignments, nil
}

// GetCTByTeacher retrieves the teacher's class-teacher row, if any.
func (r *BunAssignmentRepository) GetCTByTeacher(ctx context.Context, teacherID int64) (*models.ClassAssignment, error) {
	assignment := new(models.ClassAssignment)
	err := r.idb.NewSelect().
		Model(assignment).
		Where("teacher_id = ?", teacherID).
		Where("is_class_teacher").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class-teacher row by teacher: %w", err)
	}
	return assignment, nil
}

// GetCTByClass retrieves the class's class-teacher row, if any, with
// TeacherName populated for error messages.
func (r *BunAssignmentRepository) GetCTByClass(ctx context.Context, className string) (*models.ClassAssignment, error) {
	assignment := new(models.ClassAssignment)
	err := r.idb.NewSelect().
		Model(assignment).
		ColumnExpr("tc.*").
		ColumnExpr("t.name AS teacher_name").
		Join("JOIN teachers AS t ON t.id = tc.teacher_id").
		Where("tc.class_name = ?", className).
		Where("tc.is_class_teacher").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class-teacher row by class: %w", err)
	}
	return assignment, nil
}

// Transact runs fn against a repository view bound to one storage
// transaction, serializing the caller's check-then-write sequence against
// concurrent assignment mutations.
func (r *BunAssignmentRepository) Transact(ctx context.Context, fn func(AssignmentRepository) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(&BunAssignmentRepository{db: r.db, idb: tx})
	})
}
