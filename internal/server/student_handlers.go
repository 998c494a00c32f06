package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/services/guard"
	"github.com/schooltrack/attendapi/internal/services/registry"
)

type studentRequest struct {
	CardID     string `json:"card_id"`
	Name       string `json:"name"`
	ClassName  string `json:"class_name"`
	RollNumber string `json:"roll_number"`
}

func (req studentRequest) toModel() *models.Student {
	return &models.Student{
		CardID:     req.CardID,
		Name:       req.Name,
		ClassName:  req.ClassName,
		RollNumber: req.RollNumber,
	}
}

// HandleRegisterStudent lets a class teacher or admin register a pupil. A
// caller holding a CT assignment registers into their own class, whatever the
// body says; admins pick the class through the body.
func HandleRegisterStudent(guardSvc *guard.Service, registrySvc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.GetIdentityFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ct, err := guardSvc.RequireClassTeacher(r.Context(), identity)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		var req studentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		student := req.toModel()
		if ct != nil {
			student.ClassName = ct.ClassName
		}

		created, err := registrySvc.Register(r.Context(), student)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusCreated, "Student registered", created)
	}
}

// HandleAdminCreateStudent registers a pupil into any class.
func HandleAdminCreateStudent(registrySvc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req studentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		created, err := registrySvc.Register(r.Context(), req.toModel())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusCreated, "Student registered", created)
	}
}

// HandleListStudents returns the full register.
func HandleListStudents(registrySvc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := registrySvc.List(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondList(w, "", students, len(students))
	}
}

// HandleListClassStudents returns one class's register. Class access is
// enforced by the surrounding middleware.
func HandleListClassStudents(registrySvc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := registrySvc.ByClass(r.Context(), chi.URLParam(r, "className"))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondList(w, "", students, len(students))
	}
}

// HandleUpdateStudent rewrites a student's details.
func HandleUpdateStudent(registrySvc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req studentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		updated, err := registrySvc.Update(r.Context(), id, req.toModel())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Student updated", updated)
	}
}

// HandleDeleteStudent removes a student from the register.
func HandleDeleteStudent(registrySvc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := registrySvc.Delete(r.Context(), id); err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Student deleted", nil)
	}
}

type importStudentsRequest struct {
	Students []studentRequest `json:"students"`
}

// HandleImportStudents bulk-registers students. Rows that fail validation or
// collide with existing cards are reported back, not fatal.
func HandleImportStudents(registrySvc *registry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importStudentsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if len(req.Students) == 0 {
			respondError(w, http.StatusBadRequest, "No students to import")
			return
		}

		batch := make([]models.Student, 0, len(req.Students))
		for _, row := range req.Students {
			batch = append(batch, *row.toModel())
		}

		report, err := registrySvc.BulkImport(r.Context(), batch)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Import complete", report)
	}
}
