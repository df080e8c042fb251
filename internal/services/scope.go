package services

import (
	"fmt"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/repository"
)

// ScopeResolver loads the department data the policy rules need.
type ScopeResolver struct {
	departments repository.DepartmentRepository
}

// NewScopeResolver creates a new ScopeResolver.
func NewScopeResolver(departments repository.DepartmentRepository) *ScopeResolver {
	return &ScopeResolver{departments: departments}
}

// Scope returns the visibility scope of actor. actor.Department must be loaded.
func (r *ScopeResolver) Scope(actor *models.User) (policy.Scope, error) {
	var children []uint64
	if actor.IsExecutive() && actor.Department != nil && actor.Department.IsHeadquarters() {
		ids, err := r.departments.ChildIDs(actor.Department.ID)
		if err != nil {
			return policy.Scope{}, fmt.Errorf("failed to load child departments: %w", err)
		}
		children = ids
	}
	return policy.VisibilityScope(actor, children), nil
}

// ExpandDepartment returns the department and, when includeChildren is set,
// its teams. Unknown departments expand to themselves and match nothing.
func (r *ScopeResolver) ExpandDepartment(id uint64, includeChildren bool) ([]uint64, error) {
	ids := []uint64{id}
	if !includeChildren {
		return ids, nil
	}
	children, err := r.departments.ChildIDs(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load child departments: %w", err)
	}
	return append(ids, children...), nil
}
