package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Department{},
		&User{},
		&Task{},
		&TaskDependency{},
		&TaskComment{},
		&TaskAttachment{},
		&TaskHistory{},
		&TaskTimeLog{},
		&TaskEvaluation{},
		&Notification{},
		&ReportTemplate{},
	}
}
