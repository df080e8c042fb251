package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/utils"
)

// TaskHandler serves task CRUD and the calendar.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func taskDTOs(tasks []models.Task) []dto.TaskDTO {
	now := time.Now()
	return dto.Map(tasks, func(t models.Task) dto.TaskDTO { return dto.ToTaskDTO(t, now) })
}

func taskDetailDTO(detail *services.TaskDetail) dto.TaskDetailDTO {
	return dto.ToTaskDetailDTO(*detail.Task, detail.DependencyIDs, detail.IsDelayed)
}

// ListTasks returns the tasks visible to the caller.
// status accepts a comma separated list.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	input := services.ListTasksInput{
		IncludeChildDepts: includeChildDepts(c),
		Search:            c.Query("search"),
		Ordering:          c.Query("ordering"),
		Pagination:        utils.GetPaginationParams(c),
	}
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			input.Statuses = append(input.Statuses, models.TaskStatus(s))
		}
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}
	if input.AssigneeID, ok = queryUint64(c, "assignee"); !ok {
		return
	}
	if input.StartDate, ok = queryDate(c, "start_date", false); !ok {
		return
	}
	if input.EndDate, ok = queryDate(c, "end_date", true); !ok {
		return
	}

	departmentID, matchable := departmentFilter(c)
	if !matchable {
		c.JSON(http.StatusOK, dto.NewPage(c, input.Pagination, 0, []dto.TaskDTO{}))
		return
	}
	input.DepartmentID = departmentID

	tasks, total, err := h.taskService.List(actor, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(c, input.Pagination, total, taskDTOs(tasks)))
}

// GetTask returns a task with its comments and dependencies.
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.taskService.Get(actor, id)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskDetailDTO(detail))
}

// CreateTask opens a task reported by the caller.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title          string                 `json:"title" binding:"required,max=200"`
		Description    string                 `json:"description"`
		Status         *models.TaskStatus     `json:"status" binding:"omitempty,task_status"`
		Priority       *models.TaskPriority   `json:"priority" binding:"omitempty,task_priority"`
		Difficulty     *models.TaskDifficulty `json:"difficulty" binding:"omitempty,task_difficulty"`
		Assignee       uint64                 `json:"assignee" binding:"required"`
		Department     uint64                 `json:"department" binding:"required"`
		StartDate      time.Time              `json:"start_date" binding:"required"`
		DueDate        time.Time              `json:"due_date" binding:"required"`
		EstimatedHours float64                `json:"estimated_hours" binding:"gte=0"`
		ActualHours    *float64               `json:"actual_hours" binding:"omitempty,gte=0"`
		Dependencies   []uint64               `json:"dependencies"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.taskService.Create(actor, services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Difficulty:     req.Difficulty,
		AssigneeID:     req.Assignee,
		DepartmentID:   req.Department,
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		DependencyIDs:  req.Dependencies,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, taskDetailDTO(detail))
}

// UpdateTask changes a task. PUT and PATCH both apply only the fields sent.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title          *string                `json:"title" binding:"omitempty,max=200"`
		Description    *string                `json:"description"`
		Status         *models.TaskStatus     `json:"status" binding:"omitempty,task_status"`
		Priority       *models.TaskPriority   `json:"priority" binding:"omitempty,task_priority"`
		Difficulty     *models.TaskDifficulty `json:"difficulty" binding:"omitempty,task_difficulty"`
		Assignee       *uint64                `json:"assignee"`
		Department     *uint64                `json:"department"`
		StartDate      *time.Time             `json:"start_date"`
		DueDate        *time.Time             `json:"due_date"`
		EstimatedHours *float64               `json:"estimated_hours" binding:"omitempty,gte=0"`
		ActualHours    *float64               `json:"actual_hours" binding:"omitempty,gte=0"`
		Comment        string                 `json:"comment"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.taskService.Update(actor, id, services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Difficulty:     req.Difficulty,
		AssigneeID:     req.Assignee,
		DepartmentID:   req.Department,
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		HistoryComment: req.Comment,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskDetailDTO(detail))
}

// DeleteTask removes a task with its records and files.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(actor, id); err != nil {
		respondTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateDates moves a task on the calendar.
func (h *TaskHandler) UpdateDates(c *gin.Context) {
	type UpdateDatesRequest struct {
		StartDate time.Time `json:"start_date" binding:"required"`
		DueDate   time.Time `json:"due_date" binding:"required"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateDatesRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.taskService.UpdateDates(actor, id, req.StartDate, req.DueDate)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskDetailDTO(detail))
}

// SetDependencies replaces the tasks a task waits for.
func (h *TaskHandler) SetDependencies(c *gin.Context) {
	type DependenciesRequest struct {
		Dependencies []uint64 `json:"dependencies"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req DependenciesRequest
	if !bindJSON(c, &req) {
		return
	}

	ids, err := h.taskService.SetDependencies(actor, id, req.Dependencies)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dependencies": ids})
}

// Calendar lists tasks starting or due in a window. Without start_date and
// end_date the current month is shown.
func (h *TaskHandler) Calendar(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	now := time.Now()
	input := services.CalendarInput{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
	}
	input.End = input.Start.AddDate(0, 1, -1)

	start, ok := queryDate(c, "start_date", false)
	if !ok {
		return
	}
	end, ok := queryDate(c, "end_date", false)
	if !ok {
		return
	}
	if (start == nil) != (end == nil) {
		apierrors.BadRequest(c, "start_date와 end_date는 함께 지정해야 합니다.")
		return
	}
	if start != nil {
		input.Start, input.End = *start, *end
	}
	if input.AssigneeID, ok = queryUint64(c, "assignee"); !ok {
		return
	}
	if input.DepartmentID, ok = queryUint64(c, "department"); !ok {
		return
	}

	tasks, err := h.taskService.Calendar(actor, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Map(tasks, dto.ToCalendarEventDTO))
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrScheduleConflict):
		apierrors.BadRequest(c, "일정이 충돌합니다.")
	case errors.Is(err, services.ErrInvalidSchedule):
		apierrors.BadRequest(c, "마감일은 시작일보다 빠를 수 없습니다.")
	case errors.Is(err, services.ErrInvalidTaskFields):
		apierrors.BadRequest(c, "")
	case errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.BadRequest(c, "담당자를 찾을 수 없습니다.")
	case errors.Is(err, services.ErrDepartmentNotFound):
		apierrors.BadRequest(c, "부서를 찾을 수 없습니다.")
	case errors.Is(err, services.ErrInvalidDependency):
		apierrors.BadRequest(c, "선행 작업이 올바르지 않습니다.")
	case respondCommonError(c, err):
	default:
		respondInternal(c, err)
	}
}
