package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/policy"
)

// taskScopeCondition returns the WHERE fragment restricting tasks to a scope.
// The caller must have the tasks table available under its own name.
func taskScopeCondition(scope policy.Scope) (string, []interface{}) {
	switch {
	case scope.All:
		return "1 = 1", nil
	case len(scope.DepartmentIDs) > 0:
		return "tasks.department_id IN ?", []interface{}{scope.DepartmentIDs}
	case scope.UserID != 0:
		return "tasks.assignee_id = ?", []interface{}{scope.UserID}
	default:
		return "1 = 0", nil
	}
}

func applyTaskScope(query *gorm.DB, scope policy.Scope) *gorm.DB {
	if scope.All {
		return query
	}
	cond, args := taskScopeCondition(scope)
	return query.Where(cond, args...)
}

func applyUserScope(query *gorm.DB, scope policy.Scope) *gorm.DB {
	switch {
	case scope.All:
		return query
	case len(scope.DepartmentIDs) > 0:
		return query.Where("users.department_id IN ?", scope.DepartmentIDs)
	case scope.UserID != 0:
		return query.Where("users.id = ?", scope.UserID)
	default:
		return query.Where("1 = 0")
	}
}

// withTaskJoin joins the owning task so task scopes apply to child records.
func withTaskJoin(query *gorm.DB, table string, scope policy.Scope, taskID *uint64) *gorm.DB {
	if !scope.All {
		query = query.Joins("JOIN tasks ON tasks.id = " + table + ".task_id")
		query = applyTaskScope(query, scope)
	}
	if taskID != nil {
		query = query.Where(table+".task_id = ?", *taskID)
	}
	return query
}
