package roster

import (
	"context"
	"testing"

	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// setupTestService wires the service against an in-memory SQLite database so
// the transactional check-then-write path runs for real.
func setupTestService(t *testing.T) (*Service, *bun.DB) {
	t.Helper()

	db, err := bunx.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Teacher)(nil),
		(*models.ClassAssignment)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	for _, idx := range []string{
		"CREATE UNIQUE INDEX uq_teacher_class ON teacher_classes (teacher_id, class_name)",
		"CREATE UNIQUE INDEX uq_ct_per_teacher ON teacher_classes (teacher_id) WHERE is_class_teacher",
		"CREATE UNIQUE INDEX uq_ct_per_class ON teacher_classes (class_name) WHERE is_class_teacher",
	} {
		_, err := db.ExecContext(ctx, idx)
		require.NoError(t, err)
	}

	svc := NewService(
		repository.NewBunTeacherRepository(db),
		repository.NewBunAssignmentRepository(db),
	)
	return svc, db
}

func seedTeacher(t *testing.T, db *bun.DB, username string, role models.Role) *models.Teacher {
	t.Helper()

	teacher := &models.Teacher{
		Username:     username,
		Name:         "Teacher " + username,
		Email:        username + "@school.local",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, repository.NewBunTeacherRepository(db).Create(context.Background(), teacher))
	return teacher
}

func TestService_Assign_Validation(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	admin := seedTeacher(t, db, "head", models.RoleAdmin)

	t.Run("unknown teacher", func(t *testing.T) {
		_, err := svc.Assign(ctx, 9999, "P4 North", false)
		assert.ErrorIs(t, err, ErrTeacherNotFound)
	})

	t.Run("admin is never assignable", func(t *testing.T) {
		_, err := svc.Assign(ctx, admin.ID, "P4 North", true)
		assert.ErrorIs(t, err, ErrAdminAssignment)

		_, err = svc.Assign(ctx, admin.ID, "P4 North", false)
		assert.ErrorIs(t, err, ErrAdminAssignment)
	})
}

func TestService_Assign_ClassTeacher(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	nakato := seedTeacher(t, db, "nakato", models.RoleClassTeacher)
	okello := seedTeacher(t, db, "okello", models.RoleTeacher)

	t.Run("first class-teacher assignment succeeds", func(t *testing.T) {
		got, err := svc.Assign(ctx, nakato.ID, "P4 North", true)
		require.NoError(t, err)
		assert.True(t, got.IsClassTeacher)
		assert.Equal(t, nakato.Name, got.TeacherName)
	})

	t.Run("re-assigning the same triple is idempotent", func(t *testing.T) {
		_, err := svc.Assign(ctx, nakato.ID, "P4 North", true)
		require.NoError(t, err)

		rows, err := svc.GetByTeacher(ctx, nakato.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("teacher cannot be class teacher of a second class", func(t *testing.T) {
		_, err := svc.Assign(ctx, nakato.ID, "P5 South", true)

		var conflict *ConflictingCTError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "P4 North", conflict.ClassName)
	})

	t.Run("class cannot get a second class teacher", func(t *testing.T) {
		_, err := svc.Assign(ctx, okello.ID, "P4 North", true)

		var taken *ClassHasCTError
		require.ErrorAs(t, err, &taken)
		assert.Equal(t, "P4 North", taken.ClassName)
		assert.Equal(t, nakato.Name, taken.TeacherName)
	})

	t.Run("rejected assignment leaves no row behind", func(t *testing.T) {
		rows, err := svc.GetByTeacher(ctx, okello.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("blocked teacher can still join as subject teacher", func(t *testing.T) {
		got, err := svc.Assign(ctx, okello.ID, "P4 North", false)
		require.NoError(t, err)
		assert.False(t, got.IsClassTeacher)
	})
}

func TestService_Assign_DowngradeAndUpgrade(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	teacher := seedTeacher(t, db, "apio", models.RoleTeacher)

	_, err := svc.Assign(ctx, teacher.ID, "P2 Red", true)
	require.NoError(t, err)

	t.Run("subject-teacher assign does not silently strip the CT role", func(t *testing.T) {
		_, err := svc.Assign(ctx, teacher.ID, "P2 Red", false)

		var downgrade *CannotDowngradeError
		require.ErrorAs(t, err, &downgrade)
		assert.Equal(t, "P2 Red", downgrade.ClassName)

		// Role untouched.
		got, err := svc.GetCTAssignment(ctx, teacher.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "P2 Red", got.ClassName)
	})

	t.Run("remove then re-assign as subject teacher", func(t *testing.T) {
		require.NoError(t, svc.Remove(ctx, teacher.ID, "P2 Red"))

		got, err := svc.Assign(ctx, teacher.ID, "P2 Red", false)
		require.NoError(t, err)
		assert.False(t, got.IsClassTeacher)
	})

	t.Run("upgrade from subject teacher overwrites the row", func(t *testing.T) {
		got, err := svc.Assign(ctx, teacher.ID, "P2 Red", true)
		require.NoError(t, err)
		assert.True(t, got.IsClassTeacher)

		rows, err := svc.GetByTeacher(ctx, teacher.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

func TestService_Remove_Idempotent(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	teacher := seedTeacher(t, db, "achan", models.RoleTeacher)

	require.NoError(t, svc.Remove(ctx, teacher.ID, "P1 West"))
	require.NoError(t, svc.Remove(ctx, teacher.ID, "P1 West"))
}

func TestService_Queries(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	ct := seedTeacher(t, db, "nabirye", models.RoleClassTeacher)
	st1 := seedTeacher(t, db, "mugisha", models.RoleTeacher)
	st2 := seedTeacher(t, db, "akello", models.RoleTeacher)

	_, err := svc.Assign(ctx, ct.ID, "P6 East", true)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, st1.ID, "P6 East", false)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, st2.ID, "P6 East", false)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, st1.ID, "P7 Gold", false)
	require.NoError(t, err)

	t.Run("GetByClass lists CT first", func(t *testing.T) {
		rows, err := svc.GetByClass(ctx, "P6 East")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, ct.ID, rows[0].TeacherID)
	})

	t.Run("GetAll groups per class", func(t *testing.T) {
		rosters, err := svc.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, rosters, 2)

		assert.Equal(t, "P6 East", rosters[0].ClassName)
		require.NotNil(t, rosters[0].ClassTeacher)
		assert.Equal(t, ct.ID, rosters[0].ClassTeacher.TeacherID)
		assert.Len(t, rosters[0].SubjectTeachers, 2)

		assert.Equal(t, "P7 Gold", rosters[1].ClassName)
		assert.Nil(t, rosters[1].ClassTeacher)
		assert.Len(t, rosters[1].SubjectTeachers, 1)
	})

	t.Run("GetClassCT", func(t *testing.T) {
		got, err := svc.GetClassCT(ctx, "P6 East")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ct.ID, got.TeacherID)

		none, err := svc.GetClassCT(ctx, "P7 Gold")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("ClassAccess", func(t *testing.T) {
		has, isCT, err := svc.ClassAccess(ctx, ct.ID, "P6 East")
		require.NoError(t, err)
		assert.True(t, has)
		assert.True(t, isCT)

		has, isCT, err = svc.ClassAccess(ctx, st1.ID, "P6 East")
		require.NoError(t, err)
		assert.True(t, has)
		assert.False(t, isCT)

		has, isCT, err = svc.ClassAccess(ctx, st2.ID, "P7 Gold")
		require.NoError(t, err)
		assert.False(t, has)
		assert.False(t, isCT)
	})
}
