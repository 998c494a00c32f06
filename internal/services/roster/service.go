// Package roster maintains teacher-class assignments and the invariants
// around the class-teacher role:
//
//   - a teacher is class teacher of at most one class
//   - a class has at most one class teacher
//   - admin accounts never appear on the roster
//   - one assignment row per (teacher, class) pair; re-assigning overwrites
//
// Every other part of the system that needs to know "who may touch this
// class" asks this package.
package roster

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
)

// ClassRoster is the per-class view used by listing endpoints: the class
// teacher (if any) and the subject teachers.
type ClassRoster struct {
	ClassName       string                   `json:"class_name"`
	ClassTeacher    *models.ClassAssignment  `json:"class_teacher"`
	SubjectTeachers []models.ClassAssignment `json:"subject_teachers"`
}

// Service orchestrates assignment mutations and lookups for HTTP handlers
// and the access guard.
type Service struct {
	teachers    repository.TeacherRepository
	assignments repository.AssignmentRepository
}

// NewService constructs a new Service instance.
func NewService(teachers repository.TeacherRepository, assignments repository.AssignmentRepository) *Service {
	return &Service{teachers: teachers, assignments: assignments}
}

// Assign binds a teacher to a class as class teacher or subject teacher.
// Re-running the same assignment is a no-op; changing the flag overwrites the
// existing row. The validation sequence and the write run inside a single
// storage transaction so two concurrent assigns cannot both pass the checks.
func (s *Service) Assign(ctx context.Context, teacherID int64, className string, isClassTeacher bool) (*models.ClassAssignment, error) {
	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	if teacher == nil {
		return nil, ErrTeacherNotFound
	}
	if teacher.Role == models.RoleAdmin {
		return nil, ErrAdminAssignment
	}

	assignment := &models.ClassAssignment{
		TeacherID:      teacherID,
		ClassName:      className,
		IsClassTeacher: isClassTeacher,
		AssignedAt:     time.Now(),
	}

	err = s.assignments.Transact(ctx, func(tx repository.AssignmentRepository) error {
		if isClassTeacher {
			// One class per class teacher.
			current, err := tx.GetCTByTeacher(ctx, teacherID)
			if err != nil {
				return err
			}
			if current != nil && current.ClassName != className {
				return &ConflictingCTError{ClassName: current.ClassName}
			}

			// One class teacher per class.
			holder, err := tx.GetCTByClass(ctx, className)
			if err != nil {
				return err
			}
			if holder != nil && holder.TeacherID != teacherID {
				return &ClassHasCTError{ClassName: className, TeacherName: holder.TeacherName}
			}
		} else {
			// Never silently strip a class-teacher role.
			existing, err := tx.GetPair(ctx, teacherID, className)
			if err != nil {
				return err
			}
			if existing != nil && existing.IsClassTeacher {
				return &CannotDowngradeError{ClassName: className}
			}
		}

		return tx.Upsert(ctx, assignment)
	})
	if err != nil {
		return nil, err
	}

	assignment.TeacherName = teacher.Name
	return assignment, nil
}

// Remove deletes the assignment for (teacherID, className). Removing an
// assignment that does not exist is not an error.
func (s *Service) Remove(ctx context.Context, teacherID int64, className string) error {
	return s.assignments.Remove(ctx, teacherID, className)
}

// GetByTeacher lists the teacher's assignments.
func (s *Service) GetByTeacher(ctx context.Context, teacherID int64) ([]models.ClassAssignment, error) {
	return s.assignments.GetByTeacher(ctx, teacherID)
}

// GetByClass lists the class's assignments, class teacher first.
func (s *Service) GetByClass(ctx context.Context, className string) ([]models.ClassAssignment, error) {
	return s.assignments.GetByClass(ctx, className)
}

// GetAll returns every class that has at least one assignment, each with its
// class teacher and subject teachers, ordered by class name.
func (s *Service) GetAll(ctx context.Context) ([]ClassRoster, error) {
	rows, err := s.assignments.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byClass := make(map[string]*ClassRoster)
	for _, row := range rows {
		entry, ok := byClass[row.ClassName]
		if !ok {
			entry = &ClassRoster{ClassName: row.ClassName}
			byClass[row.ClassName] = entry
		}
		if row.IsClassTeacher {
			ct := row
			entry.ClassTeacher = &ct
		} else {
			entry.SubjectTeachers = append(entry.SubjectTeachers, row)
		}
	}

	rosters := make([]ClassRoster, 0, len(byClass))
	for _, entry := range byClass {
		rosters = append(rosters, *entry)
	}
	sort.Slice(rosters, func(i, j int) bool {
		return rosters[i].ClassName < rosters[j].ClassName
	})
	return rosters, nil
}

// GetCTAssignment returns the teacher's class-teacher assignment, or nil when
// the teacher is not a class teacher.
func (s *Service) GetCTAssignment(ctx context.Context, teacherID int64) (*models.ClassAssignment, error) {
	return s.assignments.GetCTByTeacher(ctx, teacherID)
}

// GetClassCT returns the class's class-teacher assignment, or nil when the
// class has none.
func (s *Service) GetClassCT(ctx context.Context, className string) (*models.ClassAssignment, error) {
	return s.assignments.GetCTByClass(ctx, className)
}

// ClassAccess reports whether the teacher is assigned to the class at all,
// and whether that assignment is the class-teacher one.
func (s *Service) ClassAccess(ctx context.Context, teacherID int64, className string) (hasAccess, isClassTeacher bool, err error) {
	pair, err := s.assignments.GetPair(ctx, teacherID, className)
	if err != nil {
		return false, false, err
	}
	if pair == nil {
		return false, false, nil
	}
	return true, pair.IsClassTeacher, nil
}
