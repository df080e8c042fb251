package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type compositeIndex struct {
	table   string
	name    string
	columns string
}

var compositeIndexes = []compositeIndex{
	// Task listing scoped by department and status
	{"tasks", "idx_tasks_department_status", "department_id, status"},
	{"tasks", "idx_tasks_assignee_status", "assignee_id, status"},
	{"tasks", "idx_tasks_start_date", "start_date"},

	// Notification inbox and dedupe lookups
	{"notifications", "idx_notifications_recipient_read", "recipient_id, is_read"},
	{"notifications", "idx_notifications_task_type_created", "task_id, notification_type, created_at"},

	// Activity feed
	{"task_histories", "idx_task_histories_task_created", "task_id, created_at"},

	// User ordering
	{"users", "idx_users_department_rank", "department_id, job_rank"},
}

// AddIndexes creates the multi-column indexes that struct tags do not express.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, quoteColumns(db, idx.columns))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
