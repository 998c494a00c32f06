package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	appmiddleware "github.com/schooltrack/attendapi/internal/middleware"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/services/attendance"
	"github.com/schooltrack/attendapi/internal/services/guard"
	"github.com/schooltrack/attendapi/internal/services/registry"
	"github.com/schooltrack/attendapi/internal/services/roster"
)

// RouterOptions bundles the collaborators the router mounts. All services are
// required; CORSOptions defaults when unset.
type RouterOptions struct {
	Guard       *guard.Service
	Roster      *roster.Service
	Attendance  *attendance.Service
	Registry    *registry.Service
	Teachers    repository.TeacherRepository
	Students    repository.StudentRepository
	CORSOptions *cors.Options
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles the chi router: public reader and login endpoints,
// session-guarded teacher endpoints, and the admin surface.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	authn := appmiddleware.NewAuthnMiddleware(opts.Guard)
	adminOnly := appmiddleware.RequireAdmin(opts.Guard)
	classAccess := appmiddleware.RequireClassAccess(opts.Guard, "className")

	// Public surface: health probe, reader endpoints, login.
	r.Get("/health", HandleHealth(opts.Teachers, opts.Students, opts.Attendance))
	r.Route("/api/rfid", func(r chi.Router) {
		r.Post("/scan", HandleScan(opts.Attendance))
		r.Get("/test", HandleScannerTest())
	})
	r.Post("/auth/login", HandleLogin(opts.Guard, opts.Roster))

	// Session-guarded surface.
	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Post("/auth/logout", HandleLogout(opts.Guard))
		r.Get("/auth/me", HandleMe(opts.Roster))

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/", HandleMarkAttendance(opts.Guard, opts.Attendance))
			r.With(classAccess).Get("/class/{className}", HandleClassAttendance(opts.Attendance))
			r.With(classAccess).Get("/class/{className}/today", HandleClassAttendance(opts.Attendance))
			r.With(adminOnly).Get("/latest", HandleLatestAttendance(opts.Attendance))
			r.With(adminOnly).Delete("/clear", HandleClearAttendance(opts.Attendance))
		})

		r.Route("/students", func(r chi.Router) {
			r.Post("/register", HandleRegisterStudent(opts.Guard, opts.Registry))
			r.With(adminOnly).Get("/", HandleListStudents(opts.Registry))
			r.With(classAccess).Get("/class/{className}", HandleListClassStudents(opts.Registry))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)

			r.Get("/teachers", HandleListTeachers(opts.Teachers))
			r.Post("/teachers", HandleCreateTeacher(opts.Teachers))
			r.Put("/teachers/{id}", HandleUpdateTeacher(opts.Teachers))
			r.Delete("/teachers/{id}", HandleDeleteTeacher(opts.Teachers))

			r.Post("/assign-class", HandleAssignClass(opts.Roster))
			r.Delete("/assign-class", HandleUnassignClass(opts.Roster))
			r.Get("/class-assignments", HandleListAssignments(opts.Roster))

			r.Get("/students", HandleListStudents(opts.Registry))
			r.Post("/students", HandleAdminCreateStudent(opts.Registry))
			r.Put("/students/{id}", HandleUpdateStudent(opts.Registry))
			r.Delete("/students/{id}", HandleDeleteStudent(opts.Registry))
			r.Post("/students/import", HandleImportStudents(opts.Registry))
		})
	})

	return r
}
