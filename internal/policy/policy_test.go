package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yukikurage/workforce-api/internal/models"
)

func ptr(v uint64) *uint64 { return &v }

var (
	hq1   = &models.Department{ID: 1, Name: "HQ1", Code: "HQ1"}
	team1 = &models.Department{ID: 2, Name: "TEAM1", Code: "TEAM1", ParentID: ptr(1)}
	team2 = &models.Department{ID: 3, Name: "TEAM2", Code: "TEAM2", ParentID: ptr(1)}
	hq2   = &models.Department{ID: 4, Name: "HQ2", Code: "HQ2"}
	team3 = &models.Department{ID: 5, Name: "TEAM3", Code: "TEAM3", ParentID: ptr(4)}
)

func member(id uint64, role models.Role, rank models.Rank, dept *models.Department) *models.User {
	u := &models.User{ID: id, Role: role, Rank: rank}
	if dept != nil {
		u.DepartmentID = ptr(dept.ID)
		u.Department = dept
	}
	return u
}

func TestVisibilityScope(t *testing.T) {
	tests := []struct {
		name     string
		actor    *models.User
		children []uint64
		want     Scope
	}{
		{
			name:  "admin sees everything",
			actor: member(1, models.RoleAdmin, models.RankStaff, team1),
			want:  Scope{All: true},
		},
		{
			name:     "director of headquarters sees teams",
			actor:    member(2, models.RoleEmployee, models.RankDirector, hq1),
			children: []uint64{2, 3},
			want:     Scope{DepartmentIDs: []uint64{1, 2, 3}},
		},
		{
			name:     "general manager of a team sees the team",
			actor:    member(3, models.RoleEmployee, models.RankGeneralManager, team1),
			children: nil,
			want:     Scope{DepartmentIDs: []uint64{2}},
		},
		{
			name:  "manager role sees own department",
			actor: member(4, models.RoleManager, models.RankManager, team2),
			want:  Scope{DepartmentIDs: []uint64{3}},
		},
		{
			name:  "employee sees self",
			actor: member(5, models.RoleEmployee, models.RankStaff, team1),
			want:  Scope{UserID: 5},
		},
		{
			name:  "manager without department sees self",
			actor: member(6, models.RoleManager, models.RankManager, nil),
			want:  Scope{UserID: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibilityScope(tt.actor, tt.children))
		})
	}
}

func TestScopeMembership(t *testing.T) {
	self := Scope{UserID: 5}
	assert.True(t, self.SelfOnly())
	assert.True(t, CanSeeTask(self, &models.Task{AssigneeID: 5, DepartmentID: 2}))
	assert.False(t, CanSeeTask(self, &models.Task{AssigneeID: 6, DepartmentID: 2}))

	dept := Scope{DepartmentIDs: []uint64{1, 2}}
	assert.True(t, CanSeeTask(dept, &models.Task{AssigneeID: 9, DepartmentID: 2}))
	assert.False(t, CanSeeTask(dept, &models.Task{AssigneeID: 9, DepartmentID: 3}))
	assert.True(t, CanSeeUser(dept, member(9, models.RoleEmployee, models.RankStaff, team1)))
	assert.False(t, CanSeeUser(dept, member(9, models.RoleEmployee, models.RankStaff, nil)))

	assert.True(t, Scope{}.Empty())
	assert.False(t, Scope{All: true}.Empty())
}

func TestCanViewReport(t *testing.T) {
	staff := member(10, models.RoleEmployee, models.RankStaff, team1)
	colleague := member(11, models.RoleEmployee, models.RankSenior, team1)
	teamLead := member(12, models.RoleEmployee, models.RankManager, team1)
	otherLead := member(13, models.RoleEmployee, models.RankManager, team2)
	hqHead := member(14, models.RoleEmployee, models.RankGeneralManager, hq1)
	otherHQHead := member(15, models.RoleEmployee, models.RankGeneralManager, hq2)
	director := member(16, models.RoleEmployee, models.RankDirector, team3)
	admin := member(17, models.RoleAdmin, models.RankStaff, nil)
	roleManager := member(18, models.RoleManager, models.RankSenior, team1)

	assert.True(t, CanViewReport(staff, staff), "self")
	assert.False(t, CanViewReport(colleague, staff), "peer below manager rank")
	assert.True(t, CanViewReport(teamLead, staff), "same department manager rank")
	assert.True(t, CanViewReport(roleManager, staff), "same department manager role")
	assert.False(t, CanViewReport(otherLead, staff), "manager of another team")
	assert.True(t, CanViewReport(hqHead, staff), "head of the parent headquarters")
	assert.False(t, CanViewReport(otherHQHead, staff), "head of another headquarters")
	assert.True(t, CanViewReport(director, staff), "director sees everyone")
	assert.True(t, CanViewReport(admin, staff), "admin")
}

func TestCanViewComparison(t *testing.T) {
	assert.True(t, CanViewComparison(member(1, models.RoleManager, models.RankStaff, team1)))
	assert.True(t, CanViewComparison(member(2, models.RoleEmployee, models.RankDirector, hq1)))
	assert.True(t, CanViewComparison(member(3, models.RoleEmployee, models.RankGeneralManager, hq1)))
	assert.False(t, CanViewComparison(member(4, models.RoleEmployee, models.RankDeputyGeneralManager, team1)))
}

func TestCanEvaluateTask(t *testing.T) {
	taskIn := func(d *models.Department) *models.Task {
		return &models.Task{DepartmentID: d.ID, Department: *d}
	}

	hqDirector := member(1, models.RoleEmployee, models.RankDirector, hq1)
	assert.True(t, CanEvaluateTask(hqDirector, taskIn(hq1)))
	assert.True(t, CanEvaluateTask(hqDirector, taskIn(team2)))
	assert.False(t, CanEvaluateTask(hqDirector, taskIn(team3)))

	teamGM := member(2, models.RoleEmployee, models.RankGeneralManager, team1)
	assert.True(t, CanEvaluateTask(teamGM, taskIn(team1)))
	assert.False(t, CanEvaluateTask(teamGM, taskIn(team2)))

	manager := member(3, models.RoleManager, models.RankManager, team2)
	assert.True(t, CanEvaluateTask(manager, taskIn(team2)))
	assert.False(t, CanEvaluateTask(manager, taskIn(team1)))

	employee := member(4, models.RoleEmployee, models.RankSenior, team1)
	assert.False(t, CanEvaluateTask(employee, taskIn(team1)))

	assert.True(t, CanEvaluateTask(member(5, models.RoleAdmin, models.RankStaff, nil), taskIn(team3)))
}

func TestCanManageEvaluation(t *testing.T) {
	evaluation := &models.TaskEvaluation{EvaluatorID: 7}
	assert.True(t, CanManageEvaluation(member(7, models.RoleManager, models.RankManager, team1), evaluation))
	assert.False(t, CanManageEvaluation(member(8, models.RoleManager, models.RankManager, team1), evaluation))
	assert.True(t, CanManageEvaluation(member(9, models.RoleAdmin, models.RankStaff, nil), evaluation))
}

func TestCanViewDepartmentReport(t *testing.T) {
	assert.True(t, CanViewDepartmentReport(member(1, models.RoleEmployee, models.RankGeneralManager, hq1), team1))
	assert.False(t, CanViewDepartmentReport(member(1, models.RoleEmployee, models.RankGeneralManager, hq1), team3))
	assert.True(t, CanViewDepartmentReport(member(2, models.RoleManager, models.RankManager, team1), team1))
	assert.False(t, CanViewDepartmentReport(member(2, models.RoleManager, models.RankManager, team1), hq1))
	assert.False(t, CanViewDepartmentReport(member(3, models.RoleEmployee, models.RankStaff, team1), team1))
	assert.True(t, CanViewDepartmentReport(member(4, models.RoleEmployee, models.RankDirector, team3), team1))
}

func TestCanDeleteTask(t *testing.T) {
	task := &models.Task{ReporterID: 3}
	assert.True(t, CanDeleteTask(member(3, models.RoleEmployee, models.RankStaff, team1), task))
	assert.False(t, CanDeleteTask(member(4, models.RoleEmployee, models.RankStaff, team1), task))
	assert.True(t, CanDeleteTask(member(5, models.RoleManager, models.RankManager, team1), task))
}
