package repository

import (
	"context"
	"testing"
	"time"

	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBunTeacherRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunTeacherRepository(db)
	ctx := context.Background()

	teacher := createTestTeacher(t, db, "namutebi", models.RoleTeacher)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, teacher.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "namutebi", got.Username)
		assert.Equal(t, models.RoleTeacher, got.Role)
	})

	t.Run("get by username", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "namutebi")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, teacher.ID, got.ID)
	})

	t.Run("absent teacher is (nil, nil)", func(t *testing.T) {
		got, err := repo.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = repo.GetByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		err := repo.Create(ctx, &models.Teacher{
			Username:     "namutebi",
			Name:         "Duplicate",
			Email:        "dup@school.local",
			PasswordHash: "x",
			Role:         models.RoleTeacher,
		})
		assert.Error(t, err)
	})
}

func TestBunTeacherRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunTeacherRepository(db)
	ctx := context.Background()

	teacher := createTestTeacher(t, db, "ssali", models.RoleTeacher)

	teacher.Name = "Updated Name"
	teacher.Role = models.RoleClassTeacher
	require.NoError(t, repo.Update(ctx, teacher))

	got, err := repo.GetByID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", got.Name)
	assert.Equal(t, models.RoleClassTeacher, got.Role)

	t.Run("last login stamp", func(t *testing.T) {
		require.Nil(t, got.LastLoginAt)
		require.NoError(t, repo.UpdateLastLogin(ctx, teacher.ID))

		got, err := repo.GetByID(ctx, teacher.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLoginAt)
		assert.WithinDuration(t, time.Now(), *got.LastLoginAt, time.Minute)
	})
}

func TestBunTeacherRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunTeacherRepository(db)
	ctx := context.Background()

	teacher := createTestTeacher(t, db, "kato", models.RoleClassTeacher)

	assignments := NewBunAssignmentRepository(db)
	require.NoError(t, assignments.Upsert(ctx, &models.ClassAssignment{
		TeacherID: teacher.ID, ClassName: "P7 Gold", IsClassTeacher: true,
	}))

	sessions := NewBunSessionRepository(db)
	require.NoError(t, sessions.Create(ctx, &models.Session{
		ID:        bunx.NewUUIDv7(),
		TeacherID: teacher.ID,
		TokenHash: "hash-kato",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	deleted, err := repo.Delete(ctx, teacher.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	rows, err := assignments.GetByTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, rows, "assignments must go with the account")

	sess, err := sessions.GetByTokenHash(ctx, "hash-kato")
	require.NoError(t, err)
	assert.Nil(t, sess, "sessions must go with the account")

	t.Run("deleting an absent teacher reports false", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, teacher.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestBunTeacherRepository_ListAndCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunTeacherRepository(db)
	ctx := context.Background()

	createTestTeacher(t, db, "zalwango", models.RoleAdmin)
	createTestTeacher(t, db, "babirye", models.RoleTeacher)

	teachers, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, teachers, 2)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
