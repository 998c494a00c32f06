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

func TestBunSessionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()

	teacher := createTestTeacher(t, db, "auma", models.RoleClassTeacher)
	now := time.Now()

	newSession := func(hash string, expiresAt time.Time) *models.Session {
		return &models.Session{
			ID:        bunx.NewUUIDv7(),
			TeacherID: teacher.ID,
			TokenHash: hash,
			ExpiresAt: expiresAt,
		}
	}

	t.Run("create and look up by token hash", func(t *testing.T) {
		sess := newSession("hash-live", now.Add(24*time.Hour))
		require.NoError(t, repo.Create(ctx, sess))

		got, err := repo.GetByTokenHash(ctx, "hash-live")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, teacher.ID, got.TeacherID)

		missing, err := repo.GetByTokenHash(ctx, "hash-nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("delete expired purges only stale rows", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newSession("hash-stale-1", now.Add(-time.Hour))))
		require.NoError(t, repo.Create(ctx, newSession("hash-stale-2", now.Add(-time.Minute))))

		purged, err := repo.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), purged)

		live, err := repo.GetByTokenHash(ctx, "hash-live")
		require.NoError(t, err)
		assert.NotNil(t, live)
	})

	t.Run("delete by token hash", func(t *testing.T) {
		require.NoError(t, repo.DeleteByTokenHash(ctx, "hash-live"))

		got, err := repo.GetByTokenHash(ctx, "hash-live")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete by teacher removes every session", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newSession("hash-a", now.Add(time.Hour))))
		require.NoError(t, repo.Create(ctx, newSession("hash-b", now.Add(time.Hour))))

		require.NoError(t, repo.DeleteByTeacherID(ctx, teacher.ID))

		for _, hash := range []string{"hash-a", "hash-b"} {
			got, err := repo.GetByTokenHash(ctx, hash)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
	})
}
