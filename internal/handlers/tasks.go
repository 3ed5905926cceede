package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lucasbeniti/todo-api/internal/models"
	"github.com/lucasbeniti/todo-api/internal/services"
	"github.com/lucasbeniti/todo-api/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	queue       *worker.JobQueue
}

// NewTaskHandler wires the task endpoints. queue may be nil when no job
// backend is configured; reminders are then skipped.
func NewTaskHandler(db *gorm.DB, taskService services.TaskService, queue *worker.JobQueue) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService, queue: queue}
}

// currentActor returns the identity the auth middleware resolved for this
// request. Handlers read it once and pass it explicitly into the service
// layer; nothing below this point consults the request context for it.
func currentActor(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthenticated",
			"message": "User not authenticated",
		})
		return uuid.Nil, false
	}
	actorID, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthenticated",
			"message": "User not authenticated",
		})
		return uuid.Nil, false
	}
	return actorID, true
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	actorID, ok := currentActor(c)
	if !ok {
		return
	}

	status := c.Query("status")
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	tasks, total, err := h.taskService.List(h.db, actorID, status, page)
	if err != nil {
		handleTaskError(c, err)
		return
	}

	lastPage := (total + services.PageSize - 1) / services.PageSize
	if lastPage < 1 {
		lastPage = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"data":         tasks,
		"total":        total,
		"per_page":     services.PageSize,
		"current_page": page,
		"last_page":    lastPage,
	})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actorID, ok := currentActor(c)
	if !ok {
		return
	}

	var input struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Status      string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	fieldErrors := map[string]string{}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		fieldErrors["title"] = "The title field is required."
	} else if len(input.Title) > 255 {
		fieldErrors["title"] = "The title may not be greater than 255 characters."
	}
	if input.Status != "" && !models.IsValidStatus(input.Status) {
		fieldErrors["status"] = "The selected status is invalid."
	}
	if len(fieldErrors) > 0 {
		respondValidationErrors(c, fieldErrors)
		return
	}

	task, err := h.taskService.Create(h.db, actorID, services.TaskInput{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}

	h.enqueueReminder(task)

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	actorID, ok := currentActor(c)
	if !ok {
		return
	}

	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Task not found"})
		return
	}

	task, err := h.taskService.Get(h.db, actorID, taskID)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actorID, ok := currentActor(c)
	if !ok {
		return
	}

	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Task not found"})
		return
	}

	// Only title and status are recognized on update. Anything else in the
	// body is dropped here rather than applied to the record.
	var input struct {
		Title  *string `json:"title"`
		Status *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	fieldErrors := map[string]string{}
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			fieldErrors["title"] = "The title field is required."
		} else {
			input.Title = &trimmed
		}
	}
	if input.Status != nil && !models.IsValidUpdateStatus(*input.Status) {
		fieldErrors["status"] = "The selected status is invalid."
	}
	if len(fieldErrors) > 0 {
		respondValidationErrors(c, fieldErrors)
		return
	}

	task, err := h.taskService.Update(h.db, actorID, taskID, services.TaskPatch{
		Title:  input.Title,
		Status: input.Status,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actorID, ok := currentActor(c)
	if !ok {
		return
	}

	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Task not found"})
		return
	}

	if err := h.taskService.Delete(h.db, actorID, taskID); err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *TaskHandler) enqueueReminder(task models.Task) {
	if h.queue == nil || task.Status != models.StatusPending {
		return
	}
	err := h.queue.Enqueue("default", worker.JobTypeTaskReminder, map[string]interface{}{
		"task_id": task.ID.String(),
		"user_id": task.UserID.String(),
	})
	if err != nil {
		log.Printf("failed to enqueue reminder for task %s: %v", task.ID, err)
	}
}

func respondValidationErrors(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  fields,
	})
}

// handleTaskError translates service errors to responses. A task that
// exists but belongs to someone else answers 403, not 404; the two cases
// are intentionally distinguishable.
func handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Task not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "This action is unauthorized."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to process task request"})
	}
}
