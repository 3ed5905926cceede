package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/lucasbeniti/todo-api/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TaskReminderHandler logs a reminder for a task that is still pending.
// Tasks completed or deleted since the job was enqueued are skipped
// silently.
func TaskReminderHandler(db *gorm.DB) JobHandler {
	return func(ctx context.Context, job *Job) error {
		taskIDStr, ok := job.Payload["task_id"].(string)
		if !ok {
			return errors.New("task_reminder job missing task_id")
		}
		taskID, err := uuid.FromString(taskIDStr)
		if err != nil {
			return err
		}

		var task models.Task
		err = db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if task.Status != models.StatusPending {
			return nil
		}

		log.Printf("reminder: task %q (%s) is still pending for user %s", task.Title, task.ID, task.UserID)
		return nil
	}
}

// TokenCleanupHandler prunes expired refresh tokens.
func TokenCleanupHandler(db *gorm.DB) JobHandler {
	return func(ctx context.Context, job *Job) error {
		result := db.WithContext(ctx).
			Where("expires_at < ?", time.Now()).
			Delete(&models.RefreshToken{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Printf("pruned %d expired refresh tokens", result.RowsAffected)
		}
		return nil
	}
}

// ScheduleTokenCleanup enqueues a token_cleanup job on a fixed interval
// until ctx is cancelled.
func ScheduleTokenCleanup(ctx context.Context, queue *JobQueue, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := queue.Enqueue("default", JobTypeTokenCleanup, nil); err != nil {
					log.Printf("failed to enqueue token cleanup: %v", err)
				}
			}
		}
	}()
}
