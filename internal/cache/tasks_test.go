package cache_test

import (
	"testing"

	"github.com/lucasbeniti/todo-api/internal/cache"
	"github.com/lucasbeniti/todo-api/internal/database"
	"github.com/lucasbeniti/todo-api/internal/models"
	"github.com/lucasbeniti/todo-api/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCachedService(t *testing.T) (*gorm.DB, *cache.CachedTaskService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return db, cache.NewCachedTaskService(services.NewTaskService(), cache.New(client))
}

func TestCachedGetServesSecondRead(t *testing.T) {
	db, service := setupCachedService(t)
	owner := uuid.Must(uuid.NewV4())

	task, err := service.Create(db, owner, services.TaskInput{Title: "cached"})
	require.NoError(t, err)

	first, err := service.Get(db, owner, task.ID)
	require.NoError(t, err)

	// Remove the row behind the cache's back; the cached copy must still
	// serve.
	require.NoError(t, db.Exec("DELETE FROM tasks WHERE id = ?", task.ID).Error)

	second, err := service.Get(db, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, second.Title)
}

func TestCachedGetEnforcesOwnership(t *testing.T) {
	db, service := setupCachedService(t)
	owner := uuid.Must(uuid.NewV4())
	stranger := uuid.Must(uuid.NewV4())

	task, err := service.Create(db, owner, services.TaskInput{Title: "mine"})
	require.NoError(t, err)

	// Warm the cache as the owner, then read as someone else.
	_, err = service.Get(db, owner, task.ID)
	require.NoError(t, err)

	_, err = service.Get(db, stranger, task.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestMutationsInvalidateListings(t *testing.T) {
	db, service := setupCachedService(t)
	owner := uuid.Must(uuid.NewV4())

	task, err := service.Create(db, owner, services.TaskInput{Title: "A"})
	require.NoError(t, err)

	items, total, err := service.List(db, owner, "", 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)

	status := models.StatusCompleted
	_, err = service.Update(db, owner, task.ID, services.TaskPatch{Status: &status})
	require.NoError(t, err)

	items, _, err = service.List(db, owner, "", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusCompleted, items[0].Status)

	require.NoError(t, service.Delete(db, owner, task.ID))

	items, total, err = service.List(db, owner, "", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, items)
}

func TestDeleteInvalidatesTaskKey(t *testing.T) {
	db, service := setupCachedService(t)
	owner := uuid.Must(uuid.NewV4())

	task, err := service.Create(db, owner, services.TaskInput{Title: "gone soon"})
	require.NoError(t, err)

	_, err = service.Get(db, owner, task.ID)
	require.NoError(t, err)

	require.NoError(t, service.Delete(db, owner, task.ID))

	_, err = service.Get(db, owner, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
