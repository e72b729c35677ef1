package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/realtime"
	"github.com/taskdesk/taskdesk/internal/repository"
	"go.uber.org/zap"
)

type TaskHandler struct {
	tasks   repository.TaskRepository
	history repository.HistoryRepository
	changes ChangePublisher
	logger  *zap.Logger
}

func NewTaskHandler(
	tasks repository.TaskRepository,
	history repository.HistoryRepository,
	changes ChangePublisher,
	logger *zap.Logger,
) *TaskHandler {
	return &TaskHandler{
		tasks:   tasks,
		history: history,
		changes: changes,
		logger:  logger,
	}
}

func viewerFrom(c *gin.Context) repository.Viewer {
	return repository.Viewer{
		ID:   middleware.GetUserID(c),
		Role: middleware.GetRole(c),
	}
}

// record appends an audit row; a failure is logged and swallowed so
// history never fails the action it describes.
func (h *TaskHandler) record(c *gin.Context, taskID uuid.UUID, action string) {
	id := taskID
	if err := h.history.Record(c.Request.Context(), &id, middleware.GetUserID(c), action); err != nil {
		h.logger.Warn("record task history", zap.Error(err))
	}
}

// List handles GET /v1/tasks with optional filters:
// status, priority, assigned_to, since, due_before, q, limit.
// The ownership scope comes from the token, not the query string.
func (h *TaskHandler) List(c *gin.Context) {
	filter := repository.TaskFilter{
		Search: c.Query("q"),
	}

	if s := c.Query("status"); s != "" {
		status := models.TaskStatus(s)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		filter.Status = status
	}
	if p := c.Query("priority"); p != "" {
		priority := models.TaskPriority(p)
		if !priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority"})
			return
		}
		filter.Priority = priority
	}
	if a := c.Query("assigned_to"); a != "" {
		id, err := uuid.Parse(a)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'assigned_to' parameter"})
			return
		}
		filter.AssignedTo = &id
	}
	if s := c.Query("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'since' parameter"})
			return
		}
		filter.CreatedSince = &t
	}
	if d := c.Query("due_before"); d != "" {
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'due_before' parameter"})
			return
		}
		filter.DueBefore = &t
	}
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		if n > 200 {
			n = 200
		}
		filter.Limit = n
	}

	tasks, err := h.tasks.List(c.Request.Context(), viewerFrom(c), filter)
	if err != nil {
		fail(c, h.logger, "list tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Get handles GET /v1/tasks/:id. Non-privileged callers only see tasks
// they own; the check reuses the same predicate as listing.
func (h *TaskHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, "get task", err)
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	viewer := viewerFrom(c)
	if !viewer.Privileged() {
		owned := task.CreatedBy == viewer.ID ||
			(task.AssignedTo != nil && *task.AssignedTo == viewer.ID)
		if !owned {
			// Same answer as a missing row: existence is not revealed.
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
	}

	c.JSON(http.StatusOK, task)
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"max=4000"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=high medium low"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
}

// Create handles POST /v1/tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DueDate != nil && req.DueDate.Before(time.Now().Truncate(24*time.Hour)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due date cannot be in the past"})
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   middleware.GetUserID(c),
	}
	if req.Status != "" {
		task.Status = models.TaskStatus(req.Status)
	}
	if req.Priority != "" {
		task.Priority = models.TaskPriority(req.Priority)
	}

	created, err := h.tasks.Create(c.Request.Context(), task)
	if err != nil {
		fail(c, h.logger, "create task", err)
		return
	}

	h.record(c, created.ID, "created task")
	h.changes.Publish(c.Request.Context(), realtime.Event{
		Table:   realtime.TableTasks,
		Action:  realtime.ActionInsert,
		RowID:   created.ID.String(),
		ActorID: middleware.GetUserID(c),
	})

	c.JSON(http.StatusCreated, created)
}

type updateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=4000"`
	Status      *string    `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=high medium low"`
	DueDate     *time.Time `json:"due_date"`
	ClearDue    bool       `json:"clear_due_date"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
	ClearAssign bool       `json:"clear_assigned_to"`
}

// Update handles PATCH /v1/tasks/:id.
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := repository.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		ClearDue:    req.ClearDue,
		AssignedTo:  req.AssignedTo,
		ClearAssign: req.ClearAssign,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}

	updated, err := h.tasks.Update(c.Request.Context(), viewerFrom(c), id, patch)
	if err != nil {
		fail(c, h.logger, "update task", err)
		return
	}

	action := "updated task"
	if patch.Status != nil && *patch.Status == models.StatusCompleted {
		action = "completed task"
	}
	h.record(c, id, action)
	h.changes.Publish(c.Request.Context(), realtime.Event{
		Table:   realtime.TableTasks,
		Action:  realtime.ActionUpdate,
		RowID:   id.String(),
		ActorID: middleware.GetUserID(c),
	})

	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/tasks/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), viewerFrom(c), id); err != nil {
		fail(c, h.logger, "delete task", err)
		return
	}

	h.record(c, id, "deleted task")
	h.changes.Publish(c.Request.Context(), realtime.Event{
		Table:   realtime.TableTasks,
		Action:  realtime.ActionDelete,
		RowID:   id.String(),
		ActorID: middleware.GetUserID(c),
	})

	c.Status(http.StatusNoContent)
}

// Counts handles GET /v1/task-counts; the dashboard status cards.
func (h *TaskHandler) Counts(c *gin.Context) {
	counts, err := h.tasks.CountByStatus(c.Request.Context(), viewerFrom(c))
	if err != nil {
		fail(c, h.logger, "count tasks", err)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"pending":     counts[models.StatusPending],
		"in_progress": counts[models.StatusInProgress],
		"completed":   counts[models.StatusCompleted],
	})
}
