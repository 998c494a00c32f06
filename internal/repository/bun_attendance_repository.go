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

// BunAttendanceRepository implements AttendanceRepository using Bun ORM.
type BunAttendanceRepository struct {
	db *bun.DB
}

// NewBunAttendanceRepository creates a new Bun-based attendance repository.
func NewBunAttendanceRepository(db *bun.DB) *BunAttendanceRepository {
	return &BunAttendanceRepository{db: db}
}

// Record stores a new attendance row.
func (r *BunAttendanceRepository) Record(ctx context.Context, record *models.AttendanceRecord) error {
	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return fmt.Errorf("record attendance: %w", err)
	}
	return nil
}

// List retrieves the most recent attendance rows, newest first.
// A limit of 0 means no limit.
func (r *BunAttendanceRepository) List(ctx context.Context, limit int) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	q := r.db.NewSelect().
		Model(&records).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// Latest retrieves the 50 most recent attendance rows, newest first.
func (r *BunAttendanceRepository) Latest(ctx context.Context) ([]models.AttendanceRecord, error) {
	return r.List(ctx, 50)
}

// ByClass retrieves the class's attendance rows, newest first.
// A limit of 0 means no limit.
func (r *BunAttendanceRepository) ByClass(ctx context.Context, className string, limit int) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	q := r.db.NewSelect().
		Model(&records).
		Where("class_name = ?", className).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("get attendance by class: %w", err)
	}
	return records, nil
}

// ByClassBetween retrieves the class's attendance rows with timestamps in
// [from, to), newest first.
func (r *BunAttendanceRepository) ByClassBetween(ctx context.Context, className string, from, to time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.NewSelect().
		Model(&records).
		Where("class_name = ?", className).
		Where("timestamp >= ?", from).
		Where("timestamp < ?", to).
		Order("timestamp DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get attendance by class between: %w", err)
	}
	return records, nil
}

// PresentCountByClassBetween counts distinct students of the class scanned
// within [from, to).
func (r *BunAttendanceRepository) PresentCountByClassBetween(ctx context.Context, className string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.NewSelect().
		Model((*models.AttendanceRecord)(nil)).
		ColumnExpr("COUNT(DISTINCT student_id)").
		Where("class_name = ?", className).
		Where("student_id IS NOT NULL").
		Where("timestamp >= ?", from).
		Where("timestamp < ?", to).
		Scan(ctx, &count)
	if err != nil {
		return 0, fmt.Errorf("count present by class between: %w", err)
	}
	return count, nil
}

// AbsentByClassBetween lists students of the class with no scan within
// [from, to), ordered by roll number.
func (r *BunAttendanceRepository) AbsentByClassBetween(ctx context.Context, className string, from, to time.Time) ([]models.Student, error) {
	present := r.db.NewSelect().
		Model((*models.AttendanceRecord)(nil)).
		Column("student_id").
		Where("class_name = ?", className).
		Where("student_id IS NOT NULL").
		Where("timestamp >= ?", from).
		Where("timestamp < ?", to)

	var students []models.Student
	err := r.db.NewSelect().
		Model(&students).
		Where("class_name = ?", className).
		Where("id NOT IN (?)", present).
		Order("roll_number ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get absent by class between: %w", err)
	}
	return students, nil
}

// ByStudent retrieves the student's attendance rows, newest first.
// A limit of 0 means no limit.
func (r *BunAttendanceRepository) ByStudent(ctx context.Context, studentID int64, limit int) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	q := r.db.NewSelect().
		Model(&records).
		Where("student_id = ?", studentID).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("get attendance by student: %w", err)
	}
	return records, nil
}

// CountByStudent reports the student's total number of attendance rows.
func (r *BunAttendanceRepository) CountByStudent(ctx context.Context, studentID int64) (int64, error) {
	count, err := r.db.NewSelect().
		Model((*models.AttendanceRecord)(nil)).
		Where("student_id = ?", studentID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attendance by student: %w", err)
	}
	return int64(count), nil
}

// LastByStudent retrieves the student's most recent attendance row.
// Returns (nil, nil) when the student has never scanned.
func (r *BunAttendanceRepository) LastByStudent(ctx context.Context, studentID int64) (*models.AttendanceRecord, error) {
	record := new(models.AttendanceRecord)
	err := r.db.NewSelect().
		Model(record).
		Where("student_id = ?", studentID).
		Order("timestamp DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last attendance by student: %w", err)
	}
	return record, nil
}

// ClearAll removes every attendance row and reports how many were deleted.
func (r *BunAttendanceRepository) ClearAll(ctx context.Context) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.AttendanceRecord)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear attendance: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear attendance: %w", err)
	}
	return deleted, nil
}

// Stats aggregates counts over the whole attendance table. The today window
// is computed from now in local time.
func (r *BunAttendanceRepository) Stats(ctx context.Context) (*models.AttendanceStats, error) {
	stats := new(models.AttendanceStats)

	total, err := r.db.NewSelect().Model((*models.AttendanceRecord)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("attendance stats: %w", err)
	}
	stats.TotalRecords = int64(total)

	err = r.db.NewSelect().
		Model((*models.AttendanceRecord)(nil)).
		ColumnExpr("COUNT(DISTINCT student_id)").
		Where("student_id IS NOT NULL").
		Scan(ctx, &stats.UniqueStudents)
	if err != nil {
		return nil, fmt.Errorf("attendance stats: %w", err)
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := r.db.NewSelect().
		Model((*models.AttendanceRecord)(nil)).
		Where("timestamp >= ?", dayStart).
		Where("timestamp < ?", dayStart.AddDate(0, 0, 1)).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("attendance stats: %w", err)
	}
	stats.TodayCount = int64(today)

	if stats.TotalRecords > 0 {
		var first, last time.Time
		err = r.db.NewSelect().
			Model((*models.AttendanceRecord)(nil)).
			ColumnExpr("MIN(timestamp), MAX(timestamp)").
			Scan(ctx, &first, &last)
		if err != nil {
			return nil, fmt.Errorf("attendance stats: %w", err)
		}
		stats.FirstRecord = &first
		stats.LastRecord = &last
	}

	return stats, nil
}
