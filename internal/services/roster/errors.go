package roster

import (
	"errors"
	"fmt"
)

// ErrTeacherNotFound is returned when the target teacher does not exist.
var ErrTeacherNotFound = errors.New("teacher not found")

// ErrAdminAssignment is returned when the target account carries the admin
// role tag. Admins hold blanket access and never appear on the roster.
var ErrAdminAssignment = errors.New("admin accounts cannot be assigned to classes")

// ConflictingCTError is returned when the teacher is already class teacher of
// a different class.
type ConflictingCTError struct {
	ClassName string
}

func (e *ConflictingCTError) Error() string {
	return fmt.Sprintf("teacher is already class teacher of %s", e.ClassName)
}

// ClassHasCTError is returned when the class already has a different class
// teacher.
type ClassHasCTError struct {
	ClassName   string
	TeacherName string
}

func (e *ClassHasCTError) Error() string {
	return fmt.Sprintf("class %s already has class teacher %s", e.ClassName, e.TeacherName)
}

// CannotDowngradeError is returned when a subject-teacher assignment would
// silently strip an existing class-teacher role. The caller must remove the
// assignment first.
type CannotDowngradeError struct {
	ClassName string
}

func (e *CannotDowngradeError) Error() string {
	return fmt.Sprintf("teacher is class teacher of %s; remove the assignment before downgrading", e.ClassName)
}
