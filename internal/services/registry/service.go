// Package registry manages the student register: card-to-pupil bindings
// created by class teachers and admins. Every mutation keeps the scan path's
// card cache coherent.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/services/attendance"
)

// ErrStudentNotFound is returned when the target student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// DuplicateCardError is returned when the card is already registered to
// another student.
type DuplicateCardError struct {
	CardID      string
	StudentName string
}

func (e *DuplicateCardError) Error() string {
	return fmt.Sprintf("card %s is already registered to %s", e.CardID, e.StudentName)
}

// ImportReport summarizes a bulk import: how many rows landed and which were
// rejected.
type ImportReport struct {
	Imported int          `json:"imported"`
	Skipped  []ImportSkip `json:"skipped,omitempty"`
}

// ImportSkip is one rejected bulk-import row.
type ImportSkip struct {
	CardID string `json:"card_id"`
	Reason string `json:"reason"`
}

// Service orchestrates student registration for HTTP handlers.
type Service struct {
	students repository.StudentRepository
	cache    *attendance.CardCache
}

// NewService constructs a new Service instance.
func NewService(students repository.StudentRepository, cache *attendance.CardCache) *Service {
	return &Service{students: students, cache: cache}
}

// Register creates a student bound to an RFID card. The card must not be
// registered to anyone else.
func (s *Service) Register(ctx context.Context, student *models.Student) (*models.Student, error) {
	student.CardID = strings.TrimSpace(student.CardID)
	student.Name = strings.TrimSpace(student.Name)
	if err := student.ValidateForCreate(); err != nil {
		return nil, err
	}

	existing, err := s.students.GetByCardID(ctx, student.CardID)
	if err != nil {
		return nil, fmt.Errorf("register student: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateCardError{CardID: student.CardID, StudentName: existing.Name}
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("register student: %w", err)
	}
	return student, nil
}

// Get retrieves one student.
func (s *Service) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// List returns every registered student.
func (s *Service) List(ctx context.Context) ([]models.Student, error) {
	return s.students.List(ctx)
}

// ByClass returns the students of one class.
func (s *Service) ByClass(ctx context.Context, className string) ([]models.Student, error) {
	return s.students.GetByClass(ctx, className)
}

// Update rewrites a student's details. If the card changes, the new card
// must be free, and both the old and new cache entries are dropped.
func (s *Service) Update(ctx context.Context, id int64, updated *models.Student) (*models.Student, error) {
	current, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	if current == nil {
		return nil, ErrStudentNotFound
	}

	updated.ID = id
	updated.CardID = strings.TrimSpace(updated.CardID)
	updated.Name = strings.TrimSpace(updated.Name)
	if err := updated.ValidateForCreate(); err != nil {
		return nil, err
	}

	if updated.CardID != current.CardID {
		holder, err := s.students.GetByCardID(ctx, updated.CardID)
		if err != nil {
			return nil, fmt.Errorf("update student: %w", err)
		}
		if holder != nil && holder.ID != id {
			return nil, &DuplicateCardError{CardID: updated.CardID, StudentName: holder.Name}
		}
	}

	if err := s.students.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(current.CardID)
		s.cache.Invalidate(updated.CardID)
	}
	return updated, nil
}

// Delete removes a student and drops their card from the cache.
func (s *Service) Delete(ctx context.Context, id int64) error {
	current, err := s.students.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if current == nil {
		return ErrStudentNotFound
	}

	deleted, err := s.students.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if !deleted {
		return ErrStudentNotFound
	}

	if s.cache != nil {
		s.cache.Invalidate(current.CardID)
	}
	return nil
}

// BulkImport registers a batch of students, skipping rows that fail
// validation or collide with existing cards. Partial success is normal; the
// report says what happened to every rejected row.
func (s *Service) BulkImport(ctx context.Context, students []models.Student) (*ImportReport, error) {
	report := &ImportReport{}

	for i := range students {
		student := students[i]
		student.CardID = strings.TrimSpace(student.CardID)
		student.Name = strings.TrimSpace(student.Name)

		if err := student.ValidateForCreate(); err != nil {
			report.Skipped = append(report.Skipped, ImportSkip{CardID: student.CardID, Reason: err.Error()})
			continue
		}

		existing, err := s.students.GetByCardID(ctx, student.CardID)
		if err != nil {
			return nil, fmt.Errorf("bulk import: %w", err)
		}
		if existing != nil {
			dup := &DuplicateCardError{CardID: student.CardID, StudentName: existing.Name}
			report.Skipped = append(report.Skipped, ImportSkip{CardID: student.CardID, Reason: dup.Error()})
			continue
		}

		if err := s.students.Create(ctx, &student); err != nil {
			return nil, fmt.Errorf("bulk import: %w", err)
		}
		report.Imported++
	}

	if s.cache != nil && report.Imported > 0 {
		s.cache.Purge()
	}
	return report, nil
}
