package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/storage"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTaskFields = errors.New("invalid task fields")
	ErrInvalidSchedule   = errors.New("due date must not be before start date")
	ErrScheduleConflict  = errors.New("schedule conflicts with another task of the assignee")
	ErrAssigneeNotFound  = errors.New("assignee not found")
	ErrInvalidDependency = errors.New("invalid task dependency")
)

// TaskService handles task CRUD and the side effects of task changes.
type TaskService struct {
	repos  *repository.Repositories
	scopes *ScopeResolver
	files  storage.FileStorage
	log    *zap.Logger
	now    Clock
}

// NewTaskService creates a new TaskService.
func NewTaskService(repos *repository.Repositories, scopes *ScopeResolver, files storage.FileStorage, log *zap.Logger) *TaskService {
	return &TaskService{
		repos:  repos,
		scopes: scopes,
		files:  files,
		log:    log,
		now:    systemClock,
	}
}

// ListTasksInput holds the optional filters of the task listing.
type ListTasksInput struct {
	Statuses          []models.TaskStatus
	Priority          *models.TaskPriority
	AssigneeID        *uint64
	DepartmentID      *uint64
	IncludeChildDepts bool
	Search            string
	// StartDate keeps tasks starting on or after it.
	StartDate *time.Time
	// EndDate keeps tasks due on or before it.
	EndDate    *time.Time
	Ordering   string
	Pagination utils.PaginationParams
}

var taskListPreload = []string{"Assignee", "Reporter", "Department"}

// List lists the tasks visible to actor.
func (s *TaskService) List(actor *models.User, input ListTasksInput) ([]models.Task, int64, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.TaskFilter{
		Scope:      scope,
		AssigneeID: input.AssigneeID,
		Statuses:   input.Statuses,
		Priority:   input.Priority,
		StartFrom:  input.StartDate,
		DueTo:      input.EndDate,
		Search:     strings.TrimSpace(input.Search),
		Ordering:   input.Ordering,
		Preload:    taskListPreload,
		Pagination: input.Pagination,
	}
	if input.DepartmentID != nil {
		ids, err := s.scopes.ExpandDepartment(*input.DepartmentID, input.IncludeChildDepts)
		if err != nil {
			return nil, 0, err
		}
		filter.DepartmentIDs = ids
	}

	tasks, total, err := s.repos.Tasks.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// TaskDetail is a task with its derived attributes.
type TaskDetail struct {
	Task          *models.Task
	DependencyIDs []uint64
	IsDelayed     bool
}

// Get retrieves a visible task with its comments and dependencies.
func (s *TaskService) Get(actor *models.User, id uint64) (*TaskDetail, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	task, err := loadVisibleTask(s.repos, scope, id,
		"Assignee", "Reporter", "Department", "Comments", "Comments.Author")
	if err != nil {
		return nil, err
	}
	return s.detail(task)
}

func (s *TaskService) detail(task *models.Task) (*TaskDetail, error) {
	deps, err := s.repos.Tasks.DependencyIDs(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	if deps == nil {
		deps = []uint64{}
	}
	return &TaskDetail{Task: task, DependencyIDs: deps, IsDelayed: task.IsDelayed(s.now())}, nil
}

// loadVisibleTask reports tasks outside scope as missing.
func loadVisibleTask(repos *repository.Repositories, scope policy.Scope, id uint64, preload ...string) (*models.Task, error) {
	task, err := repos.Tasks.FindByID(id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !policy.CanSeeTask(scope, task) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// CreateTaskInput represents the information to open a task.
type CreateTaskInput struct {
	Title          string
	Description    string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	Difficulty     *models.TaskDifficulty
	AssigneeID     uint64
	DepartmentID   uint64
	StartDate      time.Time
	DueDate        time.Time
	EstimatedHours float64
	ActualHours    *float64
	DependencyIDs  []uint64
}

// Create opens a task reported by actor and notifies the assignee.
func (s *TaskService) Create(actor *models.User, input CreateTaskInput) (*TaskDetail, error) {
	now := s.now()
	task := &models.Task{
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Status:         models.TaskStatusTodo,
		Priority:       models.TaskPriorityMedium,
		Difficulty:     models.TaskDifficultyMedium,
		AssigneeID:     input.AssigneeID,
		ReporterID:     actor.ID,
		DepartmentID:   input.DepartmentID,
		StartDate:      input.StartDate,
		DueDate:        input.DueDate,
		EstimatedHours: input.EstimatedHours,
		ActualHours:    input.ActualHours,
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Difficulty != nil {
		task.Difficulty = *input.Difficulty
	}
	if task.Status == models.TaskStatusDone {
		task.CompletedAt = &now
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	batch := newNotificationBatch(now)
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := ensureAssignee(tx, task.AssigneeID); err != nil {
			return err
		}
		if err := ensureDepartmentExists(tx, task.DepartmentID); err != nil {
			return err
		}

		if err := tx.Tasks.Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if task.AssigneeID != actor.ID {
			batch.add(task.AssigneeID, models.NotificationTaskAssigned, task.ID,
				fmt.Sprintf("새로운 작업이 배정되었습니다: %s", task.Title),
				models.NotificationPriorityMedium, nil)
		}
		if len(input.DependencyIDs) > 0 {
			if err := replaceDependencies(tx, task, input.DependencyIDs, batch); err != nil {
				return err
			}
		}

		return batch.flush(tx)
	})
	if err != nil {
		return nil, err
	}
	batch.record(s.log, task.ID)

	created, err := s.repos.Tasks.FindByID(task.ID, taskListPreload...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return s.detail(created)
}

func validateTask(task *models.Task) error {
	if task.Title == "" || task.AssigneeID == 0 || task.DepartmentID == 0 {
		return ErrInvalidTaskFields
	}
	if task.StartDate.IsZero() || task.DueDate.IsZero() {
		return ErrInvalidTaskFields
	}
	if task.DueDate.Before(task.StartDate) {
		return ErrInvalidSchedule
	}
	if task.EstimatedHours < 0 || (task.ActualHours != nil && *task.ActualHours < 0) {
		return ErrInvalidTaskFields
	}
	return nil
}

func ensureAssignee(repos *repository.Repositories, id uint64) error {
	user, err := repos.Users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	if !user.IsActive {
		return ErrAssigneeNotFound
	}
	return nil
}

func ensureDepartmentExists(repos *repository.Repositories, id uint64) error {
	if _, err := repos.Departments.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		return fmt.Errorf("failed to find department: %w", err)
	}
	return nil
}

// UpdateTaskInput holds the fields to change. Nil fields are left alone.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	Difficulty     *models.TaskDifficulty
	AssigneeID     *uint64
	DepartmentID   *uint64
	StartDate      *time.Time
	DueDate        *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	// HistoryComment is stored on the history row of a status change.
	HistoryComment string
}

// Update changes a task. The save, the history row and every notification
// the change triggers commit or roll back together.
func (s *TaskService) Update(actor *models.User, id uint64, input UpdateTaskInput) (*TaskDetail, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	batch := newNotificationBatch(now)
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		task, err := loadVisibleTask(tx, scope, id)
		if err != nil {
			return err
		}
		before := *task

		applyTaskChanges(task, input)
		if task.Status != before.Status {
			if task.Status == models.TaskStatusDone {
				task.CompletedAt = &now
			} else if before.Status == models.TaskStatusDone {
				task.CompletedAt = nil
			}
		}
		if err := validateTask(task); err != nil {
			return err
		}
		if task.AssigneeID != before.AssigneeID {
			if err := ensureAssignee(tx, task.AssigneeID); err != nil {
				return err
			}
		}
		if task.DepartmentID != before.DepartmentID {
			if err := ensureDepartmentExists(tx, task.DepartmentID); err != nil {
				return err
			}
		}

		if err := tx.Tasks.Update(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		if task.Status != before.Status {
			history := &models.TaskHistory{
				TaskID:         task.ID,
				ChangedByID:    actor.ID,
				PreviousStatus: before.Status,
				NewStatus:      task.Status,
				Comment:        input.HistoryComment,
				CreatedAt:      now,
			}
			if err := tx.Histories.Create(history); err != nil {
				return fmt.Errorf("failed to record task history: %w", err)
			}
		}

		if err := collectLifecycleNotifications(tx, actor, &before, task, now, batch); err != nil {
			return err
		}
		if err := batch.flush(tx); err != nil {
			return fmt.Errorf("failed to create notifications: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	batch.record(s.log, id)

	updated, err := s.repos.Tasks.FindByID(id, taskListPreload...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return s.detail(updated)
}

func applyTaskChanges(task *models.Task, input UpdateTaskInput) {
	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Difficulty != nil {
		task.Difficulty = *input.Difficulty
	}
	if input.AssigneeID != nil {
		task.AssigneeID = *input.AssigneeID
	}
	if input.DepartmentID != nil {
		task.DepartmentID = *input.DepartmentID
	}
	if input.StartDate != nil {
		task.StartDate = *input.StartDate
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.EstimatedHours != nil {
		task.EstimatedHours = *input.EstimatedHours
	}
	if input.ActualHours != nil {
		task.ActualHours = input.ActualHours
	}
}

// DaysUntilDue counts whole days from now to the due date, rounding down.
func DaysUntilDue(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

// collectLifecycleNotifications queues the notifications a task change
// triggers. Deadline checks run on every update and are deduplicated against
// notifications created in the last day.
func collectLifecycleNotifications(tx *repository.Repositories, actor *models.User, before, task *models.Task, now time.Time, batch *notificationBatch) error {
	if task.Status != before.Status {
		switch task.Status {
		case models.TaskStatusDone:
			if err := notifyDependents(tx, task, batch); err != nil {
				return err
			}
		case models.TaskStatusReview:
			reviewers, err := tx.Users.ListReviewers(task.DepartmentID)
			if err != nil {
				return fmt.Errorf("failed to list reviewers: %w", err)
			}
			for _, reviewer := range reviewers {
				batch.add(reviewer.ID, models.NotificationTaskReviewed, task.ID,
					fmt.Sprintf("작업 검토가 요청되었습니다: %s", task.Title),
					models.NotificationPriorityHigh, nil)
			}
		}
	}

	if task.AssigneeID != before.AssigneeID && task.AssigneeID != actor.ID {
		batch.add(task.AssigneeID, models.NotificationTaskAssigned, task.ID,
			fmt.Sprintf("새로운 작업이 배정되었습니다: %s", task.Title),
			models.NotificationPriorityMedium, nil)
	}

	if task.Priority != before.Priority {
		priority := models.NotificationPriorityMedium
		if task.Priority == models.TaskPriorityUrgent {
			priority = models.NotificationPriorityHigh
		}
		batch.add(task.AssigneeID, models.NotificationTaskPriorityChanged, task.ID,
			fmt.Sprintf("작업 우선순위가 %s에서 %s로 변경되었습니다: %s", before.Priority, task.Priority, task.Title),
			priority, nil)
	}

	return collectDeadlineNotifications(tx, task, now, batch)
}

func collectDeadlineNotifications(tx *repository.Repositories, task *models.Task, now time.Time, batch *notificationBatch) error {
	since := now.Add(-constants.NotificationDedupWindow)
	days := DaysUntilDue(task.DueDate, now)

	switch {
	case days > 0 && days <= constants.DueSoonWindowDays:
		exists, err := tx.Notifications.ExistsSince(task.ID, models.NotificationTaskDueSoon, since)
		if err != nil {
			return fmt.Errorf("failed to check due soon notifications: %w", err)
		}
		if exists {
			return nil
		}
		due := task.DueDate
		batch.add(task.AssigneeID, models.NotificationTaskDueSoon, task.ID,
			fmt.Sprintf("작업 마감이 %d일 남았습니다: %s", days, task.Title),
			models.NotificationPriorityHigh, &due)

	case task.DueDate.Before(now) && task.Status != models.TaskStatusDone && task.Status != models.TaskStatusHold:
		exists, err := tx.Notifications.ExistsSince(task.ID, models.NotificationTaskOverdue, since)
		if err != nil {
			return fmt.Errorf("failed to check overdue notifications: %w", err)
		}
		if exists {
			return nil
		}
		reviewers, err := tx.Users.ListReviewers(task.DepartmentID)
		if err != nil {
			return fmt.Errorf("failed to list reviewers: %w", err)
		}
		message := fmt.Sprintf("작업이 마감일을 초과했습니다: %s", task.Title)
		batch.add(task.AssigneeID, models.NotificationTaskOverdue, task.ID, message, models.NotificationPriorityHigh, nil)
		for _, reviewer := range reviewers {
			batch.add(reviewer.ID, models.NotificationTaskOverdue, task.ID, message, models.NotificationPriorityHigh, nil)
		}
	}
	return nil
}

// notifyDependents tells the assignees of dependent tasks that task finished,
// and that they are unblocked once every dependency is done.
func notifyDependents(tx *repository.Repositories, task *models.Task, batch *notificationBatch) error {
	dependents, err := tx.Tasks.ListDependents(task.ID)
	if err != nil {
		return fmt.Errorf("failed to list dependent tasks: %w", err)
	}
	for _, dependent := range dependents {
		batch.add(dependent.AssigneeID, models.NotificationTaskDependencyCompleted, dependent.ID,
			fmt.Sprintf("선행 작업이 완료되었습니다: %s", task.Title),
			models.NotificationPriorityHigh, nil)

		open, err := openDependencies(tx, dependent.ID)
		if err != nil {
			return err
		}
		if open == 0 {
			batch.add(dependent.AssigneeID, models.NotificationTaskUnblocked, dependent.ID,
				fmt.Sprintf("모든 선행 작업이 완료되었습니다: %s", dependent.Title),
				models.NotificationPriorityMedium, nil)
		}
	}
	return nil
}

// openDependencies counts the dependencies of a task that are not DONE.
func openDependencies(tx *repository.Repositories, taskID uint64) (int, error) {
	ids, err := tx.Tasks.DependencyIDs(taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to load dependencies: %w", err)
	}
	open := 0
	for _, id := range ids {
		dep, err := tx.Tasks.FindByID(id)
		if err != nil {
			return 0, fmt.Errorf("failed to load dependency: %w", err)
		}
		if dep.Status != models.TaskStatusDone {
			open++
		}
	}
	return open, nil
}

// replaceDependencies validates and stores the dependency edges of task and
// warns the assignee when the task is blocked by unfinished work.
func replaceDependencies(tx *repository.Repositories, task *models.Task, dependsOn []uint64, batch *notificationBatch) error {
	ids := uniqueIDs(dependsOn)
	for _, id := range ids {
		if id == task.ID || id == 0 {
			return ErrInvalidDependency
		}
	}
	count, err := tx.Tasks.CountExisting(ids)
	if err != nil {
		return fmt.Errorf("failed to check dependencies: %w", err)
	}
	if int(count) != len(ids) {
		return ErrInvalidDependency
	}

	if err := tx.Tasks.SetDependencies(task.ID, ids); err != nil {
		return fmt.Errorf("failed to save dependencies: %w", err)
	}

	open, err := openDependencies(tx, task.ID)
	if err != nil {
		return err
	}
	if open > 0 {
		batch.add(task.AssigneeID, models.NotificationTaskBlocked, task.ID,
			fmt.Sprintf("선행 작업이 완료되지 않았습니다: %s", task.Title),
			models.NotificationPriorityMedium, nil)
	}
	return nil
}

// SetDependencies replaces the tasks a visible task depends on.
func (s *TaskService) SetDependencies(actor *models.User, id uint64, dependsOn []uint64) ([]uint64, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}

	batch := newNotificationBatch(s.now())
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		task, err := loadVisibleTask(tx, scope, id)
		if err != nil {
			return err
		}
		if err := replaceDependencies(tx, task, dependsOn, batch); err != nil {
			return err
		}
		return batch.flush(tx)
	})
	if err != nil {
		return nil, err
	}
	batch.record(s.log, id)

	ids, err := s.repos.Tasks.DependencyIDs(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

// UpdateDates moves a task after checking the assignee has no overlapping
// open task.
func (s *TaskService) UpdateDates(actor *models.User, id uint64, start, due time.Time) (*TaskDetail, error) {
	if due.Before(start) {
		return nil, ErrInvalidSchedule
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	task, err := loadVisibleTask(s.repos, scope, id)
	if err != nil {
		return nil, err
	}

	conflict, err := s.repos.Tasks.HasScheduleConflict(task.AssigneeID, start, due, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule conflict: %w", err)
	}
	if conflict {
		return nil, ErrScheduleConflict
	}

	return s.Update(actor, id, UpdateTaskInput{StartDate: &start, DueDate: &due})
}

// Delete removes a task with everything it owns, including stored files.
func (s *TaskService) Delete(actor *models.User, id uint64) error {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return err
	}
	task, err := loadVisibleTask(s.repos, scope, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTask(actor, task) {
		return ErrPermissionDenied
	}

	files, err := s.repos.Attachments.FilesForTasks([]uint64{task.ID})
	if err != nil {
		return fmt.Errorf("failed to list attachment files: %w", err)
	}
	if err := s.repos.Tasks.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	removeFiles(s.files, s.log, files)
	return nil
}

// CalendarInput selects the tasks shown on a calendar.
type CalendarInput struct {
	Start        time.Time
	End          time.Time
	AssigneeID   *uint64
	DepartmentID *uint64
}

// Calendar lists visible tasks starting or due inside the window. An assignee
// filter takes precedence over a department filter.
func (s *TaskService) Calendar(actor *models.User, input CalendarInput) ([]models.Task, error) {
	if input.End.Before(input.Start) {
		return nil, ErrInvalidDateRange
	}
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}

	from, to := utils.StartOfDay(input.Start), utils.EndOfDay(input.End)
	filter := repository.TaskFilter{
		Scope:        scope,
		CalendarFrom: &from,
		CalendarTo:   &to,
		Preload:      taskListPreload,
	}
	switch {
	case input.AssigneeID != nil:
		filter.AssigneeID = input.AssigneeID
	case input.DepartmentID != nil:
		ids, err := s.scopes.ExpandDepartment(*input.DepartmentID, true)
		if err != nil {
			return nil, err
		}
		filter.DepartmentIDs = ids
	}

	tasks, _, err := s.repos.Tasks.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar tasks: %w", err)
	}
	return tasks, nil
}
