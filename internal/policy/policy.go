// Package policy holds every role, rank and department based permission rule.
// Services resolve the data a rule needs (departments, child teams) and ask
// this package for the decision.
package policy

import (
	"github.com/yukikurage/workforce-api/internal/models"
)

// Scope describes the rows an actor may see.
type Scope struct {
	// All grants unrestricted visibility.
	All bool
	// DepartmentIDs restricts visibility to these departments.
	DepartmentIDs []uint64
	// UserID restricts visibility to rows owned by this user.
	UserID uint64
}

// Empty reports whether the scope matches nothing.
func (s Scope) Empty() bool {
	return !s.All && len(s.DepartmentIDs) == 0 && s.UserID == 0
}

// SelfOnly reports whether the scope is limited to the actor's own rows.
func (s Scope) SelfOnly() bool {
	return !s.All && len(s.DepartmentIDs) == 0 && s.UserID != 0
}

// AllowsDepartment reports whether rows of the department are inside the scope.
func (s Scope) AllowsDepartment(departmentID uint64) bool {
	if s.All {
		return true
	}
	for _, id := range s.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}

// VisibilityScope resolves what actor may list. childDepartmentIDs are the teams
// directly under the actor's department and only matter when that department is
// a headquarters.
//
//	ADMIN                         -> everything
//	DIRECTOR / GENERAL_MANAGER    -> headquarters and its teams, or the own team
//	MANAGER role                  -> own department
//	anyone else                   -> self
func VisibilityScope(actor *models.User, childDepartmentIDs []uint64) Scope {
	if actor.IsAdmin() {
		return Scope{All: true}
	}

	if actor.DepartmentID == nil {
		return Scope{UserID: actor.ID}
	}
	departmentID := *actor.DepartmentID

	if actor.IsExecutive() {
		if actor.Department != nil && actor.Department.IsHeadquarters() {
			ids := make([]uint64, 0, len(childDepartmentIDs)+1)
			ids = append(ids, departmentID)
			ids = append(ids, childDepartmentIDs...)
			return Scope{DepartmentIDs: ids}
		}
		return Scope{DepartmentIDs: []uint64{departmentID}}
	}

	if actor.Role == models.RoleManager {
		return Scope{DepartmentIDs: []uint64{departmentID}}
	}

	return Scope{UserID: actor.ID}
}

// CanSeeTask reports whether task falls inside scope.
func CanSeeTask(scope Scope, task *models.Task) bool {
	if scope.All {
		return true
	}
	if scope.SelfOnly() {
		return task.AssigneeID == scope.UserID
	}
	return scope.AllowsDepartment(task.DepartmentID)
}

// CanSeeUser reports whether user falls inside scope.
func CanSeeUser(scope Scope, user *models.User) bool {
	if scope.All {
		return true
	}
	if scope.SelfOnly() {
		return user.ID == scope.UserID
	}
	return user.DepartmentID != nil && scope.AllowsDepartment(*user.DepartmentID)
}

func sameDepartment(a, b *models.User) bool {
	return a.DepartmentID != nil && b.DepartmentID != nil && *a.DepartmentID == *b.DepartmentID
}

// CanViewReport decides whether actor may read subject's personal report.
// subject.Department must be loaded for the headquarters rule.
func CanViewReport(actor, subject *models.User) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.ID == subject.ID {
		return true
	}
	if sameDepartment(actor, subject) && (actor.Rank.AtLeast(models.RankManager) || actor.Role == models.RoleManager) {
		return true
	}
	if actor.IsExecutive() && actor.DepartmentID != nil &&
		subject.Department != nil && subject.Department.ParentID != nil &&
		*subject.Department.ParentID == *actor.DepartmentID {
		return true
	}
	return actor.Rank == models.RankDirector
}

// CanViewComparison decides whether team and department comparisons are included.
func CanViewComparison(actor *models.User) bool {
	return actor.Role == models.RoleManager || actor.IsExecutive()
}

// CanViewDepartmentReport decides whether actor may aggregate a department.
func CanViewDepartmentReport(actor *models.User, department *models.Department) bool {
	if actor.IsAdmin() || actor.Rank == models.RankDirector {
		return true
	}
	if actor.DepartmentID == nil {
		return false
	}
	own := *actor.DepartmentID
	if actor.IsExecutive() && (department.ID == own || (department.ParentID != nil && *department.ParentID == own)) {
		return true
	}
	return actor.Role == models.RoleManager && department.ID == own
}

// CanEvaluateTask decides whether actor may attach an evaluation to task.
// task.Department must be loaded.
func CanEvaluateTask(actor *models.User, task *models.Task) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.DepartmentID == nil {
		return false
	}
	own := *actor.DepartmentID

	if actor.IsExecutive() {
		if actor.Department != nil && actor.Department.IsHeadquarters() {
			return task.DepartmentID == own ||
				(task.Department.ParentID != nil && *task.Department.ParentID == own)
		}
		return task.DepartmentID == own
	}

	if actor.Role == models.RoleManager {
		return task.DepartmentID == own
	}

	return false
}

// CanManageEvaluation decides whether actor may change or delete evaluation.
func CanManageEvaluation(actor *models.User, evaluation *models.TaskEvaluation) bool {
	return actor.IsAdmin() || evaluation.EvaluatorID == actor.ID
}

// CanDeleteTask decides whether actor may delete a task it can already see.
func CanDeleteTask(actor *models.User, task *models.Task) bool {
	return actor.IsAdmin() || actor.Role == models.RoleManager || task.ReporterID == actor.ID
}

// CanManageUsers decides whether actor may create, deactivate or reassign users.
func CanManageUsers(actor *models.User) bool {
	return actor.IsAdmin()
}

// CanManageDepartments decides whether actor may change the department tree.
func CanManageDepartments(actor *models.User) bool {
	return actor.IsAdmin()
}

// CanModifyOwned decides whether actor may edit a record it authored.
func CanModifyOwned(actor *models.User, ownerID uint64) bool {
	return actor.IsAdmin() || actor.ID == ownerID
}
