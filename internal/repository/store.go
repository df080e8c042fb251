package repository

import "gorm.io/gorm"

// Repositories bundles every repository bound to one database handle.
type Repositories struct {
	db *gorm.DB

	Users           UserRepository
	Departments     DepartmentRepository
	Tasks           TaskRepository
	Comments        CommentRepository
	Attachments     AttachmentRepository
	Histories       HistoryRepository
	TimeLogs        TimeLogRepository
	Evaluations     EvaluationRepository
	Notifications   NotificationRepository
	ReportTemplates ReportTemplateRepository
}

// New creates every repository on top of db.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:              db,
		Users:           NewUserRepository(db),
		Departments:     NewDepartmentRepository(db),
		Tasks:           NewTaskRepository(db),
		Comments:        NewCommentRepository(db),
		Attachments:     NewAttachmentRepository(db),
		Histories:       NewHistoryRepository(db),
		TimeLogs:        NewTimeLogRepository(db),
		Evaluations:     NewEvaluationRepository(db),
		Notifications:   NewNotificationRepository(db),
		ReportTemplates: NewReportTemplateRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls back every write made through tx.
func (r *Repositories) Transaction(fn func(tx *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
