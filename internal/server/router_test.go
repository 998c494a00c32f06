package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/services/attendance"
	"github.com/schooltrack/attendapi/internal/services/guard"
	"github.com/schooltrack/attendapi/internal/services/registry"
	"github.com/schooltrack/attendapi/internal/services/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret123"

type apiEnv struct {
	server *httptest.Server
	roster *roster.Service

	admin *models.Teacher
	ct    *models.Teacher // class teacher of P4 North
	st    *models.Teacher // subject teacher of P4 North
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	db, err := bunx.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Teacher)(nil),
		(*models.ClassAssignment)(nil),
		(*models.Session)(nil),
		(*models.Student)(nil),
		(*models.AttendanceRecord)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	for _, idx := range []string{
		`CREATE UNIQUE INDEX uq_teacher_class ON teacher_classes (teacher_id, class_name)`,
		`CREATE UNIQUE INDEX uq_ct_per_teacher ON teacher_classes (teacher_id) WHERE is_class_teacher`,
		`CREATE UNIQUE INDEX uq_ct_per_class ON teacher_classes (class_name) WHERE is_class_teacher`,
	} {
		_, err := db.ExecContext(ctx, idx)
		require.NoError(t, err)
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE casbin_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ptype TEXT NOT NULL, v0 TEXT, v1 TEXT, v2 TEXT
	)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO casbin_rules (ptype, v0, v1, v2) VALUES
		('p', 'admin', '*', '*'),
		('p', 'class_teacher', 'students', 'register'),
		('p', 'class_teacher', 'attendance', 'mark')`)
	require.NoError(t, err)

	enforcer, err := auth.InitEnforcer(db)
	require.NoError(t, err)

	teachers := repository.NewBunTeacherRepository(db)
	assignments := repository.NewBunAssignmentRepository(db)
	sessions := repository.NewBunSessionRepository(db)
	students := repository.NewBunStudentRepository(db)
	attendanceRepo := repository.NewBunAttendanceRepository(db)

	cache, err := attendance.NewCardCache(0)
	require.NoError(t, err)

	rosterSvc := roster.NewService(teachers, assignments)
	guardSvc := guard.NewService(teachers, sessions, rosterSvc, enforcer)
	attendanceSvc := attendance.NewService(students, attendanceRepo, cache)
	registrySvc := registry.NewService(students, cache)

	router := NewRouter(RouterOptions{
		Guard:      guardSvc,
		Roster:     rosterSvc,
		Attendance: attendanceSvc,
		Registry:   registrySvc,
		Teachers:   teachers,
		Students:   students,
	})

	env := &apiEnv{server: httptest.NewServer(router), roster: rosterSvc}
	t.Cleanup(env.server.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	seed := func(username string, role models.Role) *models.Teacher {
		teacher := &models.Teacher{
			Username:     username,
			Name:         "Teacher " + username,
			Email:        username + "@school.local",
			PasswordHash: string(hash),
			Role:         role,
		}
		require.NoError(t, teachers.Create(ctx, teacher))
		return teacher
	}
	env.admin = seed("head", models.RoleAdmin)
	env.ct = seed("nakato", models.RoleClassTeacher)
	env.st = seed("okello", models.RoleSubjectTeacher)

	_, err = rosterSvc.Assign(ctx, env.ct.ID, "P4 North", true)
	require.NoError(t, err)
	_, err = rosterSvc.Assign(ctx, env.st.ID, "P4 North", false)
	require.NoError(t, err)

	return env
}

// do sends a JSON request, optionally authenticated via the session header,
// and decodes the envelope.
func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.SessionHeaderName, token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func (e *apiEnv) login(t *testing.T, username string) string {
	t.Helper()

	status, body := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, status, "login as %s: %v", username, body["message"])

	data := body["data"].(map[string]interface{})
	return data["token"].(string)
}

func TestAuthEndpoints(t *testing.T) {
	env := setupAPI(t)

	t.Run("login returns token and assigned class", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"username": "nakato", "password": testPassword,
		})
		require.Equal(t, http.StatusOK, status)
		data := body["data"].(map[string]interface{})
		assert.NotEmpty(t, data["token"])
		assert.Equal(t, "P4 North", data["assigned_class"])
	})

	t.Run("bad credentials get a uniform 401", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"username": "nakato", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid username or password", body["message"])

		status, body = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"username": "ghost", "password": testPassword,
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid username or password", body["message"])
	})

	t.Run("me reflects the session", func(t *testing.T) {
		token := env.login(t, "okello")
		status, body := env.do(t, http.MethodGet, "/auth/me", token, nil)
		require.Equal(t, http.StatusOK, status)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "okello", data["username"])
		assert.Nil(t, data["assigned_class"], "subject teachers have no assigned class")
	})

	t.Run("logout invalidates the token", func(t *testing.T) {
		token := env.login(t, "nakato")
		status, _ := env.do(t, http.MethodPost, "/auth/logout", token, nil)
		require.Equal(t, http.StatusOK, status)

		status, _ = env.do(t, http.MethodGet, "/auth/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("protected route without a token", func(t *testing.T) {
		status, _ := env.do(t, http.MethodGet, "/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestAssignmentEndpoints(t *testing.T) {
	env := setupAPI(t)
	adminToken := env.login(t, "head")
	ctToken := env.login(t, "nakato")

	t.Run("non-admin cannot assign", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/admin/assign-class", ctToken, map[string]interface{}{
			"teacher_id": env.st.ID, "class_name": "P5 South", "is_class_teacher": true,
		})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("second CT for a class is rejected with the holder's name", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/admin/assign-class", adminToken, map[string]interface{}{
			"teacher_id": env.st.ID, "class_name": "P4 North", "is_class_teacher": true,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["message"], env.ct.Name)
	})

	t.Run("admin target is rejected", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/admin/assign-class", adminToken, map[string]interface{}{
			"teacher_id": env.admin.ID, "class_name": "P5 South",
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("assign, list, unassign", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/admin/assign-class", adminToken, map[string]interface{}{
			"teacher_id": env.st.ID, "class_name": "P5 South", "is_class_teacher": true,
		})
		require.Equal(t, http.StatusOK, status)

		status, body := env.do(t, http.MethodGet, "/admin/class-assignments", adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), body["count"])

		status, _ = env.do(t, http.MethodDelete, "/admin/assign-class", adminToken, map[string]interface{}{
			"teacher_id": env.st.ID, "class_name": "P5 South",
		})
		require.Equal(t, http.StatusOK, status)
	})
}

func TestStudentAndAttendanceFlow(t *testing.T) {
	env := setupAPI(t)
	ctToken := env.login(t, "nakato")
	stToken := env.login(t, "okello")
	adminToken := env.login(t, "head")

	t.Run("class teacher registers into their own class", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/students/register", ctToken, map[string]string{
			"card_id": "CARD-001", "name": "Amina", "class_name": "P9 Ignored", "roll_number": "1",
		})
		require.Equal(t, http.StatusCreated, status)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "P4 North", data["class_name"], "body class is overridden by the CT's class")
	})

	t.Run("subject teacher cannot register", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/students/register", stToken, map[string]string{
			"card_id": "CARD-002", "name": "Brian",
		})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("admin registers into the class named in the body", func(t *testing.T) {
		// Admins hold no CT assignment, so nothing overrides the body.
		status, body := env.do(t, http.MethodPost, "/students/register", adminToken, map[string]string{
			"card_id": "CARD-003", "name": "Carol", "class_name": "P6 West", "roll_number": "7",
		})
		require.Equal(t, http.StatusCreated, status)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "P6 West", data["class_name"])
	})

	t.Run("reader scan needs no session", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/api/rfid/scan", "", map[string]string{
			"card_id": "CARD-001",
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Attendance recorded", body["message"])

		status, body = env.do(t, http.MethodPost, "/api/rfid/scan", "", map[string]string{
			"card_id": "CARD-GHOST",
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Unknown card recorded", body["message"])
	})

	t.Run("class view branches on role", func(t *testing.T) {
		status, body := env.do(t, http.MethodGet, "/attendance/class/P4%20North/today", ctToken, nil)
		require.Equal(t, http.StatusOK, status)
		detail := body["data"].(map[string]interface{})
		assert.Contains(t, detail, "records")
		assert.Contains(t, detail, "absent")

		status, body = env.do(t, http.MethodGet, "/attendance/class/P4%20North/today", stToken, nil)
		require.Equal(t, http.StatusOK, status)
		summary := body["data"].(map[string]interface{})
		assert.Contains(t, summary, "present_count")
		assert.NotContains(t, summary, "records")
	})

	t.Run("no assignment means no class view", func(t *testing.T) {
		status, _ := env.do(t, http.MethodGet, "/attendance/class/P5%20South/today", stToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("latest and clear are admin-only", func(t *testing.T) {
		status, _ := env.do(t, http.MethodGet, "/attendance/latest", ctToken, nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, body := env.do(t, http.MethodGet, "/attendance/latest", adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), body["count"])

		status, _ = env.do(t, http.MethodDelete, "/attendance/clear", adminToken, nil)
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("manual marking is scoped to the CT's class", func(t *testing.T) {
		// Amina belongs to P4 North; nakato is its CT.
		status, body := env.do(t, http.MethodGet, "/admin/students", adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		students := body["data"].([]interface{})
		require.NotEmpty(t, students)
		aminaID := int64(students[0].(map[string]interface{})["id"].(float64))

		status, _ = env.do(t, http.MethodPost, "/attendance/", ctToken, map[string]interface{}{
			"student_id": aminaID,
		})
		assert.Equal(t, http.StatusCreated, status)

		status, _ = env.do(t, http.MethodPost, "/attendance/", stToken, map[string]interface{}{
			"student_id": aminaID,
		})
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestAdminTeacherCRUD(t *testing.T) {
	env := setupAPI(t)
	adminToken := env.login(t, "head")

	var createdID int64
	t.Run("create", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/admin/teachers", adminToken, map[string]string{
			"username": "apio", "password": "changeme1", "name": "Apio Grace", "email": "apio@school.local",
		})
		require.Equal(t, http.StatusCreated, status)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "teacher", data["role"], "role defaults to teacher")
		createdID = int64(data["id"].(float64))
	})

	t.Run("duplicate username", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/admin/teachers", adminToken, map[string]string{
			"username": "apio", "password": "changeme1", "name": "Dup", "email": "dup@school.local",
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("update and delete", func(t *testing.T) {
		path := fmt.Sprintf("/admin/teachers/%d", createdID)
		status, body := env.do(t, http.MethodPut, path, adminToken, map[string]string{
			"role": "class_teacher",
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "class_teacher", body["data"].(map[string]interface{})["role"])

		status, _ = env.do(t, http.MethodDelete, path, adminToken, nil)
		require.Equal(t, http.StatusOK, status)

		status, _ = env.do(t, http.MethodDelete, path, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("self-deletion is refused", func(t *testing.T) {
		status, _ := env.do(t, http.MethodDelete, fmt.Sprintf("/admin/teachers/%d", env.admin.ID), adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestHealth(t *testing.T) {
	env := setupAPI(t)

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, float64(3), data["teachers"])
}
