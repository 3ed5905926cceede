package services

import (
	"errors"

	"github.com/lucasbeniti/todo-api/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// PageSize is the fixed number of tasks per listing page.
const PageSize = 10

// ErrForbidden is returned when the actor is not the task's owner. It is
// distinct from gorm.ErrRecordNotFound on purpose: a request for someone
// else's task answers 403, not 404.
var ErrForbidden = errors.New("actor is not the task owner")

type TaskInput struct {
	Title       string
	Description *string
	Status      string
}

// TaskPatch carries the only fields an update may touch. Nil means leave
// the stored value unchanged.
type TaskPatch struct {
	Title  *string
	Status *string
}

type TaskService interface {
	Create(db *gorm.DB, actorID uuid.UUID, input TaskInput) (models.Task, error)
	Get(db *gorm.DB, actorID, taskID uuid.UUID) (models.Task, error)
	List(db *gorm.DB, actorID uuid.UUID, status string, page int) ([]models.Task, int64, error)
	Update(db *gorm.DB, actorID, taskID uuid.UUID, patch TaskPatch) (models.Task, error)
	Delete(db *gorm.DB, actorID, taskID uuid.UUID) error
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

func (s *TaskServiceImpl) Create(db *gorm.DB, actorID uuid.UUID, input TaskInput) (models.Task, error) {
	taskID, err := uuid.NewV4()
	if err != nil {
		return models.Task{}, err
	}

	status := input.Status
	if status == "" {
		status = models.StatusPending
	}

	task := models.Task{
		ID:          taskID,
		UserID:      actorID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
	}
	if err := db.Create(&task).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) Get(db *gorm.DB, actorID, taskID uuid.UUID) (models.Task, error) {
	var task models.Task
	if err := db.Where("id = ?", taskID).First(&task).Error; err != nil {
		return models.Task{}, err
	}
	if !Owns(actorID, task.UserID) {
		return models.Task{}, ErrForbidden
	}
	return task, nil
}

// List returns the actor's tasks ordered by creation time ascending, so
// pages stay stable as long as nothing is inserted between requests. An
// empty status means no status filter.
func (s *TaskServiceImpl) List(db *gorm.DB, actorID uuid.UUID, status string, page int) ([]models.Task, int64, error) {
	if page < 1 {
		page = 1
	}

	query := db.Model(&models.Task{}).Where("user_id = ?", actorID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := []models.Task{}
	err := query.
		Order("created_at ASC").
		Offset((page - 1) * PageSize).
		Limit(PageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *TaskServiceImpl) Update(db *gorm.DB, actorID, taskID uuid.UUID, patch TaskPatch) (models.Task, error) {
	task, err := s.Get(db, actorID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := db.Model(&task).Updates(updates).Error; err != nil {
		return models.Task{}, err
	}

	// Reload so the caller sees the stored row, including updated_at.
	if err := db.Where("id = ?", taskID).First(&task).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) Delete(db *gorm.DB, actorID, taskID uuid.UUID) error {
	task, err := s.Get(db, actorID, taskID)
	if err != nil {
		return err
	}
	return db.Delete(&task).Error
}
