package repository

import (
	"time"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID with the department loaded
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByUsernames returns the active users with any of the usernames
	FindByUsernames(usernames []string) ([]models.User, error)

	// EmployeeIDExists reports whether an employee number is already taken
	EmployeeIDExists(employeeID string) (bool, error)

	// List retrieves users with filtering, ordering and pagination
	List(filter UserFilter) ([]models.User, int64, error)

	// Update updates a user
	Update(user *models.User) error

	// ListReviewers lists active MANAGER and ADMIN users of a department
	ListReviewers(departmentID uint64) ([]models.User, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Scope         policy.Scope
	DepartmentIDs []uint64
	Rank          *models.Rank
	Role          *models.Role
	IsActive      *bool
	ExcludeRanks  []models.Rank
	Search        string
	Pagination    utils.PaginationParams
}

// DepartmentRepository defines the interface for department data access
type DepartmentRepository interface {
	// Create creates a new department
	Create(department *models.Department) error

	// FindByID finds a department by ID with its parent loaded
	FindByID(id uint64) (*models.Department, error)

	// FindByCode finds a department by its unique code
	FindByCode(code string) (*models.Department, error)

	// List lists departments, optionally only the children of a parent or only roots
	List(filter DepartmentFilter) ([]models.Department, int64, error)

	// ChildIDs returns the IDs of the teams directly under a department
	ChildIDs(id uint64) ([]uint64, error)

	// Update updates a department
	Update(department *models.Department) error

	// Delete deletes a department, its teams and their tasks, detaching members
	Delete(id uint64) error
}

// DepartmentFilter holds filtering options for listing departments
type DepartmentFilter struct {
	ParentID   *uint64
	RootsOnly  bool
	Search     string
	Pagination utils.PaginationParams
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task and every record it owns
	Delete(id uint64) error

	// SetDependencies replaces the tasks a task depends on
	SetDependencies(taskID uint64, dependsOn []uint64) error

	// DependencyIDs lists the tasks a task depends on
	DependencyIDs(taskID uint64) ([]uint64, error)

	// ListDependents lists the tasks that depend on a task
	ListDependents(taskID uint64) ([]models.Task, error)

	// HasScheduleConflict reports whether the assignee has another open task overlapping the range
	HasScheduleConflict(assigneeID uint64, start, due time.Time, excludeTaskID uint64) (bool, error)

	// CountExisting counts how many of the given task IDs exist
	CountExisting(ids []uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Scope         policy.Scope
	DepartmentIDs []uint64
	AssigneeID    *uint64
	AssigneeIDs   []uint64
	Statuses      []models.TaskStatus
	Priority      *models.TaskPriority
	StartFrom     *time.Time
	StartTo       *time.Time
	DueFrom       *time.Time
	DueTo         *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CompletedOnly bool
	// ActiveFrom/ActiveTo keep tasks whose [start, due] span touches the window.
	ActiveFrom *time.Time
	ActiveTo   *time.Time
	// CalendarFrom/CalendarTo keep tasks starting or due inside the window.
	CalendarFrom *time.Time
	CalendarTo   *time.Time
	Search       string
	Ordering     string
	Preload      []string
	Limit        int
	Pagination   utils.PaginationParams
}

// CommentRepository defines the interface for task comment data access
type CommentRepository interface {
	Create(comment *models.TaskComment) error
	FindByID(id uint64) (*models.TaskComment, error)
	List(filter TaskRecordFilter) ([]models.TaskComment, int64, error)
	Update(comment *models.TaskComment) error
	Delete(id uint64) error
}

// AttachmentRepository defines the interface for task attachment data access
type AttachmentRepository interface {
	Create(attachment *models.TaskAttachment) error
	FindByID(id uint64) (*models.TaskAttachment, error)
	List(filter TaskRecordFilter) ([]models.TaskAttachment, int64, error)
	Delete(id uint64) error
	// FilesForTasks returns the storage keys of every attachment of the tasks
	FilesForTasks(taskIDs []uint64) ([]string, error)
}

// HistoryRepository defines the interface for task history data access.
// History is append only: there is no update or delete.
type HistoryRepository interface {
	Create(history *models.TaskHistory) error
	FindByID(id uint64) (*models.TaskHistory, error)
	List(filter TaskRecordFilter) ([]models.TaskHistory, int64, error)
	// Recent lists the newest rows inside the scope or written by the actor
	Recent(scope policy.Scope, actorID uint64, limit int) ([]models.TaskHistory, error)
	// ReworkedTaskIDs returns which of the tasks were moved back out of DONE
	ReworkedTaskIDs(taskIDs []uint64) ([]uint64, error)
}

// TimeLogRepository defines the interface for task time log data access
type TimeLogRepository interface {
	Create(log *models.TaskTimeLog) error
	FindByID(id uint64) (*models.TaskTimeLog, error)
	List(filter TaskRecordFilter) ([]models.TaskTimeLog, int64, error)
	Update(log *models.TaskTimeLog) error
	Delete(id uint64) error
	// ListForTasks returns every closed time log of the tasks
	ListForTasks(taskIDs []uint64) ([]models.TaskTimeLog, error)
}

// EvaluationRepository defines the interface for task evaluation data access
type EvaluationRepository interface {
	Create(evaluation *models.TaskEvaluation) error
	FindByID(id uint64) (*models.TaskEvaluation, error)
	List(filter TaskRecordFilter) ([]models.TaskEvaluation, int64, error)
	Update(evaluation *models.TaskEvaluation) error
	Delete(id uint64) error
	// ListForTasks returns every evaluation of the tasks
	ListForTasks(taskIDs []uint64) ([]models.TaskEvaluation, error)
}

// TaskRecordFilter selects records owned by tasks inside a visibility scope
type TaskRecordFilter struct {
	Scope      policy.Scope
	TaskID     *uint64
	Pagination utils.PaginationParams
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// CreateBatch inserts every notification in a single statement batch
	CreateBatch(notifications []models.Notification) error
	FindByID(id uint64) (*models.Notification, error)
	List(filter NotificationFilter) ([]models.Notification, int64, error)
	CountUnread(recipientID uint64) (int64, error)
	Update(notification *models.Notification) error
	MarkAllRead(recipientID uint64) (int64, error)
	Delete(id uint64) error
	// ExistsSince reports whether a notification of the type was created for the task after since
	ExistsSince(taskID uint64, notificationType models.NotificationType, since time.Time) (bool, error)
	// DeleteReadBefore removes read notifications created before cutoff
	DeleteReadBefore(cutoff time.Time) (int64, error)
	// DeleteExpired removes notifications whose expiry is before now
	DeleteExpired(now time.Time) (int64, error)
}

// NotificationFilter holds filtering options for a recipient's inbox
type NotificationFilter struct {
	RecipientID uint64
	IsRead      *bool
	Type        *models.NotificationType
	Pagination  utils.PaginationParams
}

// ReportTemplateRepository defines the interface for report template data access
type ReportTemplateRepository interface {
	Create(template *models.ReportTemplate) error
	FindByID(id uint64) (*models.ReportTemplate, error)
	// List lists templates, restricted to one owner when ownerID is set
	List(ownerID *uint64, pagination utils.PaginationParams) ([]models.ReportTemplate, int64, error)
	Update(template *models.ReportTemplate) error
	Delete(id uint64) error
}
