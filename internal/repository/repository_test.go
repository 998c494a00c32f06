package repository

import (
	"context"
	"testing"

	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// setupTestDB creates an in-memory SQLite database with the full schema,
// including the partial unique indexes the roster invariants rely on.
func setupTestDB(t *testing.T) *bun.DB {
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

	indexes := []string{
		"CREATE UNIQUE INDEX uq_teacher_class ON teacher_classes (teacher_id, class_name)",
		"CREATE UNIQUE INDEX uq_ct_per_teacher ON teacher_classes (teacher_id) WHERE is_class_teacher",
		"CREATE UNIQUE INDEX uq_ct_per_class ON teacher_classes (class_name) WHERE is_class_teacher",
	}
	for _, idx := range indexes {
		_, err := db.ExecContext(ctx, idx)
		require.NoError(t, err)
	}

	return db
}

// createTestTeacher inserts a teacher row and returns it.
func createTestTeacher(t *testing.T, db *bun.DB, username string, role models.Role) *models.Teacher {
	t.Helper()

	teacher := &models.Teacher{
		Username:     username,
		Name:         "Teacher " + username,
		Email:        username + "@school.local",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, NewBunTeacherRepository(db).Create(context.Background(), teacher))
	return teacher
}

// createTestStudent inserts a student row and returns it.
func createTestStudent(t *testing.T, db *bun.DB, cardID, name, className, roll string) *models.Student {
	t.Helper()

	student := &models.Student{
		CardID:     cardID,
		Name:       name,
		ClassName:  className,
		RollNumber: roll,
	}
	require.NoError(t, NewBunStudentRepository(db).Create(context.Background(), student))
	return student
}
