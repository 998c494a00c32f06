package repository

import (
	"context"
	"time"

	"github.com/schooltrack/attendapi/internal/db/models"
)

// TeacherRepository exposes persistence operations for teacher accounts.
// Lookup methods return (nil, nil) when no row matches; errors are reserved
// for storage failures.
type TeacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	GetByID(ctx context.Context, id int64) (*models.Teacher, error)
	GetByUsername(ctx context.Context, username string) (*models.Teacher, error)
	Update(ctx context.Context, teacher *models.Teacher) error
	UpdateLastLogin(ctx context.Context, id int64) error
	// Delete removes the account together with its assignments and
	// sessions in one transaction.
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]models.Teacher, error)
	Count(ctx context.Context) (int64, error)
}

// AssignmentRepository exposes persistence operations for the teacher↔class
// relation. Single-row lookups return (nil, nil) when no row matches.
type AssignmentRepository interface {
	// Upsert writes the assignment row for (TeacherID, ClassName),
	// overwriting the flag on an existing pairing.
	Upsert(ctx context.Context, assignment *models.ClassAssignment) error
	// Remove deletes the row for the pair; removing an absent pair is not
	// an error.
	Remove(ctx context.Context, teacherID int64, className string) error

	GetPair(ctx context.Context, teacherID int64, className string) (*models.ClassAssignment, error)
	GetByTeacher(ctx context.Context, teacherID int64) ([]models.ClassAssignment, error)
	GetByClass(ctx context.Context, className string) ([]models.ClassAssignment, error)
	// GetAll returns every assignment joined with the owning teacher's
	// display name, ordered by class then teacher.
	GetAll(ctx context.Context) ([]models.ClassAssignment, error)
	// GetCTByTeacher returns the teacher's class-teacher row, if any.
	GetCTByTeacher(ctx context.Context, teacherID int64) (*models.ClassAssignment, error)
	// GetCTByClass returns the class's class-teacher row, if any, with
	// TeacherName populated.
	GetCTByClass(ctx context.Context, className string) (*models.ClassAssignment, error)

	// Transact runs fn against a repository view bound to a single storage
	// transaction. The roster service uses this to make its check-then-write
	// sequence atomic with respect to concurrent assignment mutations.
	Transact(ctx context.Context, fn func(AssignmentRepository) error) error
}

// SessionRepository exposes persistence operations for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetByTokenHash is the primary authentication lookup. Returns
	// (nil, nil) when the hash is unknown.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByTeacherID(ctx context.Context, teacherID int64) error
	// DeleteExpired purges every session past the given instant and
	// reports how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StudentRepository exposes persistence operations for students.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByCardID(ctx context.Context, cardID string) (*models.Student, error)
	GetByClass(ctx context.Context, className string) ([]models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// AttendanceRepository exposes persistence operations for scan records.
type AttendanceRepository interface {
	Record(ctx context.Context, record *models.AttendanceRecord) error
	List(ctx context.Context, limit int) ([]models.AttendanceRecord, error)
	Latest(ctx context.Context) ([]models.AttendanceRecord, error)
	ByClass(ctx context.Context, className string, limit int) ([]models.AttendanceRecord, error)
	ByClassBetween(ctx context.Context, className string, from, to time.Time) ([]models.AttendanceRecord, error)
	// PresentCountByClassBetween counts distinct students of the class
	// scanned within [from, to).
	PresentCountByClassBetween(ctx context.Context, className string, from, to time.Time) (int64, error)
	// AbsentByClassBetween lists students of the class with no scan within
	// [from, to).
	AbsentByClassBetween(ctx context.Context, className string, from, to time.Time) ([]models.Student, error)
	ByStudent(ctx context.Context, studentID int64, limit int) ([]models.AttendanceRecord, error)
	CountByStudent(ctx context.Context, studentID int64) (int64, error)
	LastByStudent(ctx context.Context, studentID int64) (*models.AttendanceRecord, error)
	ClearAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*models.AttendanceStats, error)
}
