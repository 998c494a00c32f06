// Package attendance records badge scans and serves the attendance query
// surface. Scans are never rejected: an unregistered card still produces a
// record (with no student link) so hardware and data problems stay visible
// instead of silently dropping presence data.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
)

// ErrStudentNotFound is returned by manual marking for an unknown student.
var ErrStudentNotFound = errors.New("student not found")

// UnknownStudentName labels records from cards nobody registered.
const UnknownStudentName = "Unknown"

// ScanResult is the outcome of one badge scan.
type ScanResult struct {
	Record  *models.AttendanceRecord `json:"record"`
	Student *models.Student          `json:"student,omitempty"` // nil for unregistered cards
	Known   bool                     `json:"known"`
}

// ClassDay is the full class-teacher view of one class on one day.
type ClassDay struct {
	ClassName     string                    `json:"class_name"`
	Date          time.Time                 `json:"date"`
	Records       []models.AttendanceRecord `json:"records"`
	Absent        []models.Student          `json:"absent"`
	PresentCount  int64                     `json:"present_count"`
	TotalStudents int                       `json:"total_students"`
}

// ClassSummary is the aggregate-only view subject teachers get: counts, no
// per-student rows.
type ClassSummary struct {
	ClassName     string    `json:"class_name"`
	Date          time.Time `json:"date"`
	PresentCount  int64     `json:"present_count"`
	AbsentCount   int64     `json:"absent_count"`
	TotalStudents int       `json:"total_students"`
}

// Service orchestrates scan recording and attendance queries.
type Service struct {
	students   repository.StudentRepository
	attendance repository.AttendanceRepository
	cache      *CardCache
}

// NewService constructs a new Service instance.
func NewService(students repository.StudentRepository, attendance repository.AttendanceRepository, cache *CardCache) *Service {
	return &Service{students: students, attendance: attendance, cache: cache}
}

// DayWindow returns the [from, to) bounds of the calendar day containing t,
// in t's location. Computed here rather than in SQL so SQLite and PostgreSQL
// agree on what "today" means.
func DayWindow(t time.Time) (from, to time.Time) {
	from = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

// RecordScan stores a badge scan. Registered cards link the record to the
// student; unknown cards are recorded as-is so they can be reconciled later.
func (s *Service) RecordScan(ctx context.Context, cardID string, at time.Time) (*ScanResult, error) {
	if cardID == "" {
		return nil, errors.New("card_id is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	student, err := s.lookupCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}

	record := &models.AttendanceRecord{
		CardID:      cardID,
		StudentName: UnknownStudentName,
		Timestamp:   at,
		RecordedAt:  time.Now(),
	}
	if student != nil {
		record.StudentID = &student.ID
		record.StudentName = student.Name
		record.ClassName = student.ClassName
	}

	if err := s.attendance.Record(ctx, record); err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}

	return &ScanResult{Record: record, Student: student, Known: student != nil}, nil
}

func (s *Service) lookupCard(ctx context.Context, cardID string) (*models.Student, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(cardID); ok {
			return &cached, nil
		}
	}

	student, err := s.students.GetByCardID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if student != nil && s.cache != nil {
		s.cache.Put(*student)
	}
	return student, nil
}

// Mark records attendance for a student without a badge scan, stamped at the
// given time.
func (s *Service) Mark(ctx context.Context, studentID int64, at time.Time) (*models.AttendanceRecord, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	if at.IsZero() {
		at = time.Now()
	}

	record := &models.AttendanceRecord{
		CardID:      student.CardID,
		StudentID:   &student.ID,
		StudentName: student.Name,
		ClassName:   student.ClassName,
		Timestamp:   at,
		RecordedAt:  time.Now(),
	}
	if err := s.attendance.Record(ctx, record); err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
	return record, nil
}

// Student returns the student the record belongs to when marking needs the
// class for authorization.
func (s *Service) Student(ctx context.Context, studentID int64) (*models.Student, error) {
	return s.students.GetByID(ctx, studentID)
}

// Latest returns the 50 most recent records across all classes.
func (s *Service) Latest(ctx context.Context) ([]models.AttendanceRecord, error) {
	return s.attendance.Latest(ctx)
}

// ClassDetail builds the class-teacher view of a class for the day
// containing at: every record plus who is absent.
func (s *Service) ClassDetail(ctx context.Context, className string, at time.Time) (*ClassDay, error) {
	from, to := DayWindow(at)

	records, err := s.attendance.ByClassBetween(ctx, className, from, to)
	if err != nil {
		return nil, fmt.Errorf("class detail: %w", err)
	}
	absent, err := s.attendance.AbsentByClassBetween(ctx, className, from, to)
	if err != nil {
		return nil, fmt.Errorf("class detail: %w", err)
	}
	present, err := s.attendance.PresentCountByClassBetween(ctx, className, from, to)
	if err != nil {
		return nil, fmt.Errorf("class detail: %w", err)
	}
	roster, err := s.students.GetByClass(ctx, className)
	if err != nil {
		return nil, fmt.Errorf("class detail: %w", err)
	}

	return &ClassDay{
		ClassName:     className,
		Date:          from,
		Records:       records,
		Absent:        absent,
		PresentCount:  present,
		TotalStudents: len(roster),
	}, nil
}

// ClassSummary builds the aggregate view of a class for the day containing
// at: counts only, no student identities.
func (s *Service) ClassSummary(ctx context.Context, className string, at time.Time) (*ClassSummary, error) {
	from, to := DayWindow(at)

	present, err := s.attendance.PresentCountByClassBetween(ctx, className, from, to)
	if err != nil {
		return nil, fmt.Errorf("class summary: %w", err)
	}
	roster, err := s.students.GetByClass(ctx, className)
	if err != nil {
		return nil, fmt.Errorf("class summary: %w", err)
	}

	absent := int64(len(roster)) - present
	if absent < 0 {
		absent = 0
	}
	return &ClassSummary{
		ClassName:     className,
		Date:          from,
		PresentCount:  present,
		AbsentCount:   absent,
		TotalStudents: len(roster),
	}, nil
}

// History returns a student's scan history, newest first.
func (s *Service) History(ctx context.Context, studentID int64, limit int) ([]models.AttendanceRecord, error) {
	return s.attendance.ByStudent(ctx, studentID, limit)
}

// ClearAll wipes the attendance table and reports how many rows went.
func (s *Service) ClearAll(ctx context.Context) (int64, error) {
	return s.attendance.ClearAll(ctx)
}

// Stats aggregates the attendance table for the health endpoint.
func (s *Service) Stats(ctx context.Context) (*models.AttendanceStats, error) {
	return s.attendance.Stats(ctx)
}
