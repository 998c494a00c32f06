package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/schooltrack/attendapi/internal/services/attendance"
	"github.com/schooltrack/attendapi/internal/services/guard"
	"github.com/schooltrack/attendapi/internal/services/registry"
	"github.com/schooltrack/attendapi/internal/services/roster"
)

// respondServiceError maps service-layer errors onto HTTP statuses. Typed
// errors keep their message; anything unrecognized is a 500 with the detail
// kept out of the response.
func respondServiceError(w http.ResponseWriter, err error) {
	var (
		conflictingCT   *roster.ConflictingCTError
		classHasCT      *roster.ClassHasCTError
		cannotDowngrade *roster.CannotDowngradeError
		duplicateCard   *registry.DuplicateCardError
	)

	switch {
	case errors.Is(err, guard.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, guard.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, guard.ErrForbidden):
		respondError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, roster.ErrTeacherNotFound):
		respondError(w, http.StatusNotFound, "Teacher not found")
	case errors.Is(err, roster.ErrAdminAssignment):
		respondError(w, http.StatusBadRequest, "Admin accounts cannot be assigned to classes")
	case errors.As(err, &conflictingCT):
		respondError(w, http.StatusBadRequest, conflictingCT.Error())
	case errors.As(err, &classHasCT):
		respondError(w, http.StatusBadRequest, classHasCT.Error())
	case errors.As(err, &cannotDowngrade):
		respondError(w, http.StatusBadRequest, cannotDowngrade.Error())
	case errors.As(err, &duplicateCard):
		respondError(w, http.StatusBadRequest, duplicateCard.Error())
	case errors.Is(err, registry.ErrStudentNotFound), errors.Is(err, attendance.ErrStudentNotFound):
		respondError(w, http.StatusNotFound, "Student not found")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
