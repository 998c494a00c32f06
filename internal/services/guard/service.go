// Package guard is the authentication and authorization choke point: session
// issue and verification, plus the capability checks every protected endpoint
// runs before touching data.
//
// Authorization has two halves. Coarse capability gates (may this role tag
// manage teachers, register students, mark attendance) are Casbin policy
// lookups. Class scoping (may this teacher see THIS class) is derived from
// roster assignments and never from the role tag, so a teacher whose tag says
// class_teacher still cannot touch a class they are not assigned to.
package guard

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/services/roster"
	"golang.org/x/crypto/bcrypt"
)

// Service implements login, session verification, and capability checks.
type Service struct {
	teachers repository.TeacherRepository
	sessions repository.SessionRepository
	roster   *roster.Service
	enforcer casbin.IEnforcer
}

// NewService constructs a new Service instance.
func NewService(
	teachers repository.TeacherRepository,
	sessions repository.SessionRepository,
	rosterSvc *roster.Service,
	enforcer casbin.IEnforcer,
) *Service {
	return &Service{
		teachers: teachers,
		sessions: sessions,
		roster:   rosterSvc,
		enforcer: enforcer,
	}
}

// Login verifies credentials and issues a session token. The returned token
// is the only copy; storage keeps its hash. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Teacher, string, time.Time, error) {
	teacher, err := s.teachers.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("login: %w", err)
	}
	if teacher == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, tokenHash, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("login: %w", err)
	}

	now := time.Now()
	session := &models.Session{
		ID:        bunx.NewUUIDv7(),
		TeacherID: teacher.ID,
		TokenHash: tokenHash,
		ExpiresAt: auth.CalculateExpiry(now),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", time.Time{}, fmt.Errorf("login: %w", err)
	}

	if err := s.teachers.UpdateLastLogin(ctx, teacher.ID); err != nil {
		// The session is already issued; a missing stamp is not worth
		// failing the login over.
		log.Printf("login: failed to stamp last login for %s: %v", teacher.Username, err)
	}

	return teacher, token, session.ExpiresAt, nil
}

// Logout deletes the session behind the token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, auth.HashToken(token)); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Authenticate resolves a session token to an identity. Expired sessions are
// purged lazily here, so the table never needs a background sweeper.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, ErrUnauthenticated
	}

	purged, err := s.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		return auth.Identity{}, fmt.Errorf("authenticate: %w", err)
	}
	if purged > 0 {
		log.Printf("purged %d expired session(s)", purged)
	}

	session, err := s.sessions.GetByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		return auth.Identity{}, fmt.Errorf("authenticate: %w", err)
	}
	if session == nil || session.Expired(time.Now()) {
		return auth.Identity{}, ErrUnauthenticated
	}

	teacher, err := s.teachers.GetByID(ctx, session.TeacherID)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("authenticate: %w", err)
	}
	if teacher == nil {
		// Account deleted under a live session.
		if err := s.sessions.DeleteByTokenHash(ctx, session.TokenHash); err != nil {
			log.Printf("authenticate: failed to drop orphaned session: %v", err)
		}
		return auth.Identity{}, ErrUnauthenticated
	}

	return auth.Identity{
		ID:        teacher.ID,
		Username:  teacher.Username,
		Name:      teacher.Name,
		Email:     teacher.Email,
		Role:      teacher.Role,
		SessionID: session.ID,
	}, nil
}

// RequireAdmin verifies the identity may use the admin surface.
func (s *Service) RequireAdmin(ctx context.Context, identity auth.Identity) error {
	ok, err := s.enforcer.Enforce(string(identity.Role), auth.ObjectAdmin, auth.ActionManage)
	if err != nil {
		return fmt.Errorf("authorize admin: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// RequireClassTeacher is the coarse role-tag gate in front of student
// registration: only the admin and class_teacher tags pass, regardless of
// what assignment rows the account holds. It returns the caller's CT
// assignment when one exists so the handler can pin the class; admins carry
// none and choose the class themselves.
func (s *Service) RequireClassTeacher(ctx context.Context, identity auth.Identity) (*models.ClassAssignment, error) {
	ok, err := s.enforcer.Enforce(string(identity.Role), auth.ObjectStudents, auth.ActionRegister)
	if err != nil {
		return nil, fmt.Errorf("authorize class teacher: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}

	ct, err := s.roster.GetCTAssignment(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("authorize class teacher: %w", err)
	}
	return ct, nil
}

// RequireClassAccess verifies the identity may view the class and reports
// whether the view is the full class-teacher one. Admins see every class in
// full; teachers need an assignment row.
func (s *Service) RequireClassAccess(ctx context.Context, identity auth.Identity, className string) (auth.ClassAccess, error) {
	if identity.IsAdmin() {
		return auth.ClassAccess{ClassName: className, IsClassTeacher: true}, nil
	}

	hasAccess, isCT, err := s.roster.ClassAccess(ctx, identity.ID, className)
	if err != nil {
		return auth.ClassAccess{}, fmt.Errorf("authorize class access: %w", err)
	}
	if !hasAccess {
		return auth.ClassAccess{}, ErrForbidden
	}
	return auth.ClassAccess{ClassName: className, IsClassTeacher: isCT}, nil
}

// RequireCanMark verifies the identity may manually mark attendance for the
// class. Admins always may; everyone else needs both halves: the
// class_teacher role tag (role tag and assignments are independent facts,
// so holding a CT row under another tag is not enough) and the CT assignment
// for exactly this class.
func (s *Service) RequireCanMark(ctx context.Context, identity auth.Identity, className string) error {
	if identity.IsAdmin() {
		return nil
	}

	ok, err := s.enforcer.Enforce(string(identity.Role), auth.ObjectAttendance, auth.ActionMark)
	if err != nil {
		return fmt.Errorf("authorize attendance marking: %w", err)
	}
	if !ok {
		return ErrForbidden
	}

	_, isCT, err := s.roster.ClassAccess(ctx, identity.ID, className)
	if err != nil {
		return fmt.Errorf("authorize attendance marking: %w", err)
	}
	if !isCT {
		return ErrForbidden
	}
	return nil
}
