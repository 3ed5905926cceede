package cache

import (
	"fmt"
	"time"

	"github.com/lucasbeniti/todo-api/internal/models"
	"github.com/lucasbeniti/todo-api/internal/services"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	taskTTL = 30 * time.Minute
	listTTL = 5 * time.Minute
)

// CachedTaskService decorates a TaskService with redis caching. Single
// tasks are cached by id, list pages per owner. Every mutation invalidates
// the owner's keys so listings never serve stale pages. Cache failures
// fall through to the underlying service.
type CachedTaskService struct {
	inner services.TaskService
	cache *Cache
}

func NewCachedTaskService(inner services.TaskService, cache *Cache) *CachedTaskService {
	return &CachedTaskService{inner: inner, cache: cache}
}

func taskKey(taskID uuid.UUID) string {
	return fmt.Sprintf("task:%s", taskID)
}

func listKey(ownerID uuid.UUID, status string, page int) string {
	return fmt.Sprintf("tasks:%s:%s:%d", ownerID, status, page)
}

func (s *CachedTaskService) Create(db *gorm.DB, actorID uuid.UUID, input services.TaskInput) (models.Task, error) {
	task, err := s.inner.Create(db, actorID, input)
	if err != nil {
		return task, err
	}
	s.cache.Set(taskKey(task.ID), task, taskTTL)
	s.invalidateOwner(actorID)
	return task, nil
}

func (s *CachedTaskService) Get(db *gorm.DB, actorID, taskID uuid.UUID) (models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(taskKey(taskID), &cached); err == nil {
		// The ownership rule applies to cache hits too; a hit must not
		// leak another actor's task.
		if !services.Owns(actorID, cached.UserID) {
			return models.Task{}, services.ErrForbidden
		}
		return cached, nil
	}

	task, err := s.inner.Get(db, actorID, taskID)
	if err != nil {
		return task, err
	}
	s.cache.Set(taskKey(taskID), task, taskTTL)
	return task, nil
}

func (s *CachedTaskService) List(db *gorm.DB, actorID uuid.UUID, status string, page int) ([]models.Task, int64, error) {
	if page < 1 {
		page = 1
	}

	var cached struct {
		Items []models.Task `json:"items"`
		Total int64         `json:"total"`
	}
	key := listKey(actorID, status, page)
	if err := s.cache.Get(key, &cached); err == nil {
		return cached.Items, cached.Total, nil
	}

	items, total, err := s.inner.List(db, actorID, status, page)
	if err != nil {
		return items, total, err
	}

	cached.Items = items
	cached.Total = total
	s.cache.Set(key, cached, listTTL)
	return items, total, nil
}

func (s *CachedTaskService) Update(db *gorm.DB, actorID, taskID uuid.UUID, patch services.TaskPatch) (models.Task, error) {
	task, err := s.inner.Update(db, actorID, taskID, patch)
	if err != nil {
		return task, err
	}
	s.cache.Delete(taskKey(taskID))
	s.invalidateOwner(actorID)
	return task, nil
}

func (s *CachedTaskService) Delete(db *gorm.DB, actorID, taskID uuid.UUID) error {
	if err := s.inner.Delete(db, actorID, taskID); err != nil {
		return err
	}
	s.cache.Delete(taskKey(taskID))
	s.invalidateOwner(actorID)
	return nil
}

func (s *CachedTaskService) invalidateOwner(ownerID uuid.UUID) {
	s.cache.DeletePattern(fmt.Sprintf("tasks:%s:*", ownerID))
}
