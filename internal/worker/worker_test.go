package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/lucasbeniti/todo-api/internal/database"
	"github.com/lucasbeniti/todo-api/internal/models"
	"github.com/lucasbeniti/todo-api/internal/worker"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupQueue(t *testing.T) (*redis.Client, *worker.JobQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, worker.NewJobQueue(client)
}

func TestEnqueueAndSize(t *testing.T) {
	_, queue := setupQueue(t)

	require.NoError(t, queue.Enqueue("default", worker.JobTypeTaskReminder, map[string]interface{}{
		"task_id": uuid.Must(uuid.NewV4()).String(),
	}))

	size, err := queue.Size("default")
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestWorkerProcessesJob(t *testing.T) {
	client, queue := setupQueue(t)

	processed := make(chan *worker.Job, 1)

	w := worker.NewWorker(client, []string{"default"})
	w.RegisterHandler(worker.JobTypeTaskReminder, func(ctx context.Context, job *worker.Job) error {
		processed <- job
		return nil
	})
	w.Start(1)
	defer w.Stop()

	taskID := uuid.Must(uuid.NewV4()).String()
	require.NoError(t, queue.Enqueue("default", worker.JobTypeTaskReminder, map[string]interface{}{
		"task_id": taskID,
	}))

	select {
	case job := <-processed:
		assert.Equal(t, worker.JobTypeTaskReminder, job.Type)
		assert.Equal(t, taskID, job.Payload["task_id"])
	case <-time.After(10 * time.Second):
		t.Fatal("job was not processed in time")
	}
}

func TestTokenCleanupHandler(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	expired := models.RefreshToken{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    uuid.Must(uuid.NewV4()),
		Token:     uuid.Must(uuid.NewV4()),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	valid := models.RefreshToken{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    uuid.Must(uuid.NewV4()),
		Token:     uuid.Must(uuid.NewV4()),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&valid).Error)

	handler := worker.TokenCleanupHandler(db)
	require.NoError(t, handler(context.Background(), &worker.Job{Type: worker.JobTypeTokenCleanup}))

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTaskReminderHandlerSkipsCompleted(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	task := models.Task{
		ID:     uuid.Must(uuid.NewV4()),
		UserID: uuid.Must(uuid.NewV4()),
		Title:  "done",
		Status: models.StatusCompleted,
	}
	require.NoError(t, db.Create(&task).Error)

	handler := worker.TaskReminderHandler(db)
	job := &worker.Job{
		Type:    worker.JobTypeTaskReminder,
		Payload: map[string]interface{}{"task_id": task.ID.String()},
	}
	assert.NoError(t, handler(context.Background(), job))

	// Deleted tasks are skipped too, not treated as failures.
	job.Payload["task_id"] = uuid.Must(uuid.NewV4()).String()
	assert.NoError(t, handler(context.Background(), job))
}
