package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/services/roster"
)

type teacherResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

func toTeacherResponse(t *models.Teacher) teacherResponse {
	resp := teacherResponse{
		ID:        t.ID,
		Username:  t.Username,
		Name:      t.Name,
		Email:     t.Email,
		Role:      string(t.Role),
		CreatedAt: t.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if t.LastLoginAt != nil {
		resp.LastLoginAt = t.LastLoginAt.Format("2006-01-02 15:04:05")
	}
	return resp
}

type createTeacherRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// HandleCreateTeacher creates a teaching or admin account.
func HandleCreateTeacher(teachers repository.TeacherRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTeacherRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		role := models.Role(req.Role)
		if req.Role == "" {
			role = models.RoleTeacher
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Password is required")
			return
		}

		teacher := &models.Teacher{
			Username:     req.Username,
			PasswordHash: hash,
			Name:         req.Name,
			Email:        req.Email,
			Role:         role,
		}
		if err := teacher.ValidateForCreate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		existing, err := teachers.GetByUsername(r.Context(), req.Username)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if existing != nil {
			respondError(w, http.StatusBadRequest, "Username already taken")
			return
		}

		if err := teachers.Create(r.Context(), teacher); err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusCreated, "Teacher created", toTeacherResponse(teacher))
	}
}

// HandleListTeachers lists every account.
func HandleListTeachers(teachers repository.TeacherRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := teachers.List(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}

		resp := make([]teacherResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toTeacherResponse(&list[i]))
		}
		respondList(w, "", resp, len(resp))
	}
}

type updateTeacherRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleUpdateTeacher rewrites an account's name, email, and role tag.
func HandleUpdateTeacher(teachers repository.TeacherRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		teacher, err := teachers.GetByID(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if teacher == nil {
			respondError(w, http.StatusNotFound, "Teacher not found")
			return
		}

		var req updateTeacherRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name != "" {
			teacher.Name = req.Name
		}
		if req.Email != "" {
			teacher.Email = req.Email
		}
		if req.Role != "" {
			role := models.Role(req.Role)
			if !role.IsValid() {
				respondError(w, http.StatusBadRequest, "Unknown role")
				return
			}
			teacher.Role = role
		}

		if err := teachers.Update(r.Context(), teacher); err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Teacher updated", toTeacherResponse(teacher))
	}
}

// HandleDeleteTeacher removes an account along with its assignments and
// sessions. Admins cannot delete themselves.
func HandleDeleteTeacher(teachers repository.TeacherRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if identity, ok := auth.GetIdentityFromContext(r.Context()); ok && identity.ID == id {
			respondError(w, http.StatusBadRequest, "Cannot delete your own account")
			return
		}

		deleted, err := teachers.Delete(r.Context(), id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if !deleted {
			respondError(w, http.StatusNotFound, "Teacher not found")
			return
		}
		respondSuccess(w, http.StatusOK, "Teacher deleted", nil)
	}
}

type assignClassRequest struct {
	TeacherID      int64  `json:"teacher_id"`
	ClassName      string `json:"class_name"`
	IsClassTeacher bool   `json:"is_class_teacher"`
}

// HandleAssignClass binds a teacher to a class as class or subject teacher.
func HandleAssignClass(rosterSvc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignClassRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.TeacherID == 0 || req.ClassName == "" {
			respondError(w, http.StatusBadRequest, "teacher_id and class_name are required")
			return
		}

		assignment, err := rosterSvc.Assign(r.Context(), req.TeacherID, req.ClassName, req.IsClassTeacher)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Class assigned", assignment)
	}
}

type unassignClassRequest struct {
	TeacherID int64  `json:"teacher_id"`
	ClassName string `json:"class_name"`
}

// HandleUnassignClass removes a teacher-class binding.
func HandleUnassignClass(rosterSvc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req unassignClassRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.TeacherID == 0 || req.ClassName == "" {
			respondError(w, http.StatusBadRequest, "teacher_id and class_name are required")
			return
		}

		if err := rosterSvc.Remove(r.Context(), req.TeacherID, req.ClassName); err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Class assignment removed", nil)
	}
}

// HandleListAssignments returns every class with its class teacher and
// subject teachers.
func HandleListAssignments(rosterSvc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rosters, err := rosterSvc.GetAll(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondList(w, "", rosters, len(rosters))
	}
}

// pathID parses a numeric chi URL parameter, writing a 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
