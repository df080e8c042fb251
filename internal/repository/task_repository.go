package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/database"
	"github.com/yukikurage/workforce-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Omit("Assignee", "Reporter", "Department", "Comments", "Dependencies").Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// taskOrderings maps the accepted ordering parameters to ORDER BY clauses.
var taskOrderings = map[string]string{
	"start_date":  "tasks.start_date ASC",
	"-start_date": "tasks.start_date DESC",
	"due_date":    "tasks.due_date ASC",
	"-due_date":   "tasks.due_date DESC",
	"created_at":  "tasks.created_at ASC",
	"-created_at": "tasks.created_at DESC",
	"priority":    priorityOrdinalExpr() + " ASC",
	"-priority":   priorityOrdinalExpr() + " DESC",
}

// ValidTaskOrdering reports whether ordering is an accepted ordering parameter.
func ValidTaskOrdering(ordering string) bool {
	_, ok := taskOrderings[ordering]
	return ok
}

func priorityOrdinalExpr() string {
	var b strings.Builder
	b.WriteString("CASE tasks.priority")
	for i, p := range models.TaskPriorityOrder {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, i)
	}
	b.WriteString(" END")
	return b.String()
}

func (r *GormTaskRepository) filtered(filter TaskFilter) *gorm.DB {
	query := applyTaskScope(r.db.Model(&models.Task{}), filter.Scope)

	if len(filter.DepartmentIDs) > 0 {
		query = query.Where("tasks.department_id IN ?", filter.DepartmentIDs)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if len(filter.AssigneeIDs) > 0 {
		query = query.Where("tasks.assignee_id IN ?", filter.AssigneeIDs)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("tasks.status IN ?", filter.Statuses)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.StartFrom != nil {
		query = query.Where("tasks.start_date >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		query = query.Where("tasks.start_date <= ?", *filter.StartTo)
	}
	if filter.DueFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("tasks.due_date <= ?", *filter.DueTo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("tasks.created_at <= ?", *filter.CreatedTo)
	}
	if filter.CompletedOnly {
		query = query.Where("tasks.status = ? AND tasks.completed_at IS NOT NULL", models.TaskStatusDone)
	}
	if filter.ActiveFrom != nil && filter.ActiveTo != nil {
		query = query.Where("tasks.start_date <= ? AND tasks.due_date >= ?", *filter.ActiveTo, *filter.ActiveFrom)
	}
	if filter.CalendarFrom != nil && filter.CalendarTo != nil {
		query = query.Where("((tasks.start_date BETWEEN ? AND ?) OR (tasks.due_date BETWEEN ? AND ?))",
			*filter.CalendarFrom, *filter.CalendarTo, *filter.CalendarFrom, *filter.CalendarTo)
	}
	if filter.Search != "" {
		query = query.
			Joins("LEFT JOIN users AS assignees ON assignees.id = tasks.assignee_id").
			Scopes(database.ContainsAny(filter.Search,
				"tasks.title",
				"tasks.description",
				database.Concat(r.db, "assignees.last_name", "assignees.first_name"),
				"assignees.first_name",
				"assignees.last_name",
			))
	}

	return query
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	if filter.Scope.Empty() {
		return []models.Task{}, 0, nil
	}

	query := r.filtered(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := taskOrderings[filter.Ordering]
	if !ok {
		order = taskOrderings["start_date"]
	}
	listQuery := query.Select("tasks.*").Order(order).Order("tasks.id ASC")

	if filter.Limit > 0 {
		listQuery = listQuery.Limit(filter.Limit)
	}
	listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))

	for _, p := range filter.Preload {
		listQuery = listQuery.Preload(p)
	}

	var tasks []models.Task
	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit("Assignee", "Reporter", "Department", "Comments", "Dependencies").Save(task).Error
}

// Delete deletes a task and every record it owns
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteTasks(tx, []uint64{id})
	})
}

// deleteTasks removes tasks with their owned records. It must run inside a transaction.
func deleteTasks(tx *gorm.DB, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	owned := []interface{}{
		&models.TaskComment{},
		&models.TaskAttachment{},
		&models.TaskHistory{},
		&models.TaskTimeLog{},
		&models.TaskEvaluation{},
		&models.Notification{},
	}
	for _, model := range owned {
		if err := tx.Where("task_id IN ?", ids).Delete(model).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("task_id IN ? OR depends_on_id IN ?", ids, ids).Delete(&models.TaskDependency{}).Error; err != nil {
		return err
	}

	return tx.Where("id IN ?", ids).Delete(&models.Task{}).Error
}

// SetDependencies replaces the tasks a task depends on
func (r *GormTaskRepository) SetDependencies(taskID uint64, dependsOn []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskDependency{}).Error; err != nil {
			return err
		}
		if len(dependsOn) == 0 {
			return nil
		}

		edges := make([]models.TaskDependency, len(dependsOn))
		for i, id := range dependsOn {
			edges[i] = models.TaskDependency{TaskID: taskID, DependsOnID: id}
		}
		return tx.Create(&edges).Error
	})
}

// DependencyIDs lists the tasks a task depends on
func (r *GormTaskRepository) DependencyIDs(taskID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&models.TaskDependency{}).
		Where("task_id = ?", taskID).
		Order("depends_on_id").
		Pluck("depends_on_id", &ids).Error
	return ids, err
}

// ListDependents lists the tasks that depend on a task
func (r *GormTaskRepository) ListDependents(taskID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Joins("JOIN task_dependencies ON task_dependencies.task_id = tasks.id").
		Where("task_dependencies.depends_on_id = ?", taskID).
		Order("tasks.id").
		Find(&tasks).Error
	return tasks, err
}

// HasScheduleConflict reports whether the assignee has another open task overlapping the range
func (r *GormTaskRepository) HasScheduleConflict(assigneeID uint64, start, due time.Time, excludeTaskID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("assignee_id = ? AND id <> ?", assigneeID, excludeTaskID).
		Where("status NOT IN ?", []models.TaskStatus{models.TaskStatusDone, models.TaskStatusHold}).
		Where("start_date < ? AND due_date > ?", due, start).
		Count(&count).Error
	return count > 0, err
}

// CountExisting counts how many of the given task IDs exist
func (r *GormTaskRepository) CountExisting(ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Task{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
