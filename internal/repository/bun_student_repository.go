package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunStudentRepository implements StudentRepository using Bun ORM.
type BunStudentRepository struct {
	db *bun.DB
}

// NewBunStudentRepository creates a new Bun-based student repository.
func NewBunStudentRepository(db *bun.DB) *BunStudentRepository {
	return &BunStudentRepository{db: db}
}

// Create stores a new student row.
func (r *BunStudentRepository) Create(ctx context.Context, student *models.Student) error {
	_, err := r.db.NewInsert().Model(student).Exec(ctx)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// GetByID retrieves a student by ID. Returns (nil, nil) when absent.
func (r *BunStudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	student := new(models.Student)
	err := r.db.NewSelect().Model(student).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}
	return student, nil
}

// GetByCardID retrieves the student registered to the RFID card.
// Returns (nil, nil) when no student holds the card.
func (r *BunStudentRepository) GetByCardID(ctx context.Context, cardID string) (*models.Student, error) {
	student := new(models.Student)
	err := r.db.NewSelect().Model(student).Where("card_id = ?", cardID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by card id: %w", err)
	}
	return student, nil
}

// GetByClass retrieves every student enrolled in the class, ordered by
// roll number then name.
func (r *BunStudentRepository) GetByClass(ctx context.Context, className string) ([]models.Student, error) {
	var students []models.Student
	err := r.db.NewSelect().
		Model(&students).
		Where("class_name = ?", className).
		Order("roll_number ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get students by class: %w", err)
	}
	return students, nil
}

// List retrieves every registered student ordered by class then roll number.
func (r *BunStudentRepository) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := r.db.NewSelect().
		Model(&students).
		Order("class_name ASC", "roll_number ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Update persists changes to a student's card, name, class, and roll number.
func (r *BunStudentRepository) Update(ctx context.Context, student *models.Student) error {
	res, err := r.db.NewUpdate().
		Model(student).
		Column("card_id", "name", "class_name", "roll_number").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update student: no student with id %d", student.ID)
	}
	return nil
}

// Delete removes a student. Reports whether a row was actually deleted.
func (r *BunStudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*models.Student)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	return rows > 0, nil
}

// Count reports the number of registered students.
func (r *BunStudentRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.db.NewSelect().Model((*models.Student)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return int64(count), nil
}
