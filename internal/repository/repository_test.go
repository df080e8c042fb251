package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/utils"
)

type RepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repos *Repositories
}

func (suite *RepositoryTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.AutoMigrate(models.All()...))
	suite.repos = New(suite.db)
}

func (suite *RepositoryTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *RepositoryTestSuite) createDepartment(name string, parent *models.Department) *models.Department {
	d := &models.Department{Name: name, Code: name}
	if parent != nil {
		d.ParentID = &parent.ID
	}
	suite.Require().NoError(suite.repos.Departments.Create(d))
	return d
}

func (suite *RepositoryTestSuite) createUser(username, first string, rank models.Rank, dept *models.Department) *models.User {
	u := &models.User{
		Username:     username,
		PasswordHash: "x",
		EmployeeID:   "E" + username,
		FirstName:    first,
		LastName:     "Kim",
		Role:         models.RoleEmployee,
		Rank:         rank,
		IsActive:     true,
	}
	if dept != nil {
		u.DepartmentID = &dept.ID
	}
	suite.Require().NoError(suite.repos.Users.Create(u))
	return u
}

func (suite *RepositoryTestSuite) createTask(title string, assignee *models.User, dept *models.Department) *models.Task {
	now := time.Now().UTC()
	t := &models.Task{
		Title:        title,
		Status:       models.TaskStatusTodo,
		Priority:     models.TaskPriorityMedium,
		Difficulty:   models.TaskDifficultyMedium,
		AssigneeID:   assignee.ID,
		ReporterID:   assignee.ID,
		DepartmentID: dept.ID,
		StartDate:    now,
		DueDate:      now.Add(48 * time.Hour),
	}
	suite.Require().NoError(suite.repos.Tasks.Create(t))
	return t
}

func (suite *RepositoryTestSuite) TestUserListOrdering() {
	hq := suite.createDepartment("B-HQ", nil)
	team := suite.createDepartment("A-TEAM", hq)

	staff := suite.createUser("staff", "Zed", models.RankStaff, team)
	head := suite.createUser("head", "Yun", models.RankGeneralManager, hq)
	lead := suite.createUser("lead", "Ahn", models.RankManager, team)
	director := suite.createUser("dir", "Bae", models.RankDirector, hq)

	users, total, err := suite.repos.Users.List(UserFilter{Scope: policy.Scope{All: true}})
	suite.Require().NoError(err)
	suite.Equal(int64(4), total)

	ids := make([]uint64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	// Headquarters first, then rank seniority inside each department.
	suite.Equal([]uint64{director.ID, head.ID, lead.ID, staff.ID}, ids)
	suite.NotNil(users[0].Department)
}

func (suite *RepositoryTestSuite) TestUserListScopeAndSearch() {
	team := suite.createDepartment("TEAM", nil)
	other := suite.createDepartment("OTHER", nil)
	a := suite.createUser("alpha", "Minsu", models.RankStaff, team)
	suite.createUser("beta", "Jisoo", models.RankStaff, other)

	users, total, err := suite.repos.Users.List(UserFilter{Scope: policy.Scope{DepartmentIDs: []uint64{team.ID}}})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal(a.ID, users[0].ID)

	users, _, err = suite.repos.Users.List(UserFilter{Scope: policy.Scope{All: true}, Search: "kimjis"})
	suite.Require().NoError(err)
	suite.Require().Len(users, 1)
	suite.Equal("beta", users[0].Username)

	users, _, err = suite.repos.Users.List(UserFilter{Scope: policy.Scope{UserID: a.ID}})
	suite.Require().NoError(err)
	suite.Len(users, 1)

	users, _, err = suite.repos.Users.List(UserFilter{Scope: policy.Scope{}})
	suite.Require().NoError(err)
	suite.Empty(users)
}

func (suite *RepositoryTestSuite) TestTaskListScopeFiltersAndPagination() {
	hq := suite.createDepartment("HQ1", nil)
	team := suite.createDepartment("TEAM1", hq)
	other := suite.createDepartment("HQ2", nil)
	emp := suite.createUser("emp", "A", models.RankStaff, team)
	peer := suite.createUser("peer", "B", models.RankStaff, team)

	suite.createTask("mine", emp, team)
	suite.createTask("peer task", peer, team)
	suite.createTask("hq task", peer, hq)
	suite.createTask("elsewhere", peer, other)

	tasks, total, err := suite.repos.Tasks.List(TaskFilter{Scope: policy.Scope{UserID: emp.ID}})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal("mine", tasks[0].Title)

	_, total, err = suite.repos.Tasks.List(TaskFilter{Scope: policy.Scope{DepartmentIDs: []uint64{hq.ID, team.ID}}})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)

	tasks, total, err = suite.repos.Tasks.List(TaskFilter{
		Scope:      policy.Scope{All: true},
		Pagination: utils.PaginationParams{Page: 2, PageSize: 3, Offset: 3},
	})
	suite.Require().NoError(err)
	suite.Equal(int64(4), total)
	suite.Len(tasks, 1)

	tasks, _, err = suite.repos.Tasks.List(TaskFilter{Scope: policy.Scope{All: true}, Search: "HQ"})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal("hq task", tasks[0].Title)
}

func (suite *RepositoryTestSuite) TestDepartmentDeleteCascadesToTeams() {
	hq := suite.createDepartment("HQ", nil)
	team := suite.createDepartment("TEAM", hq)
	keep := suite.createDepartment("KEEP", nil)
	member := suite.createUser("member", "A", models.RankStaff, team)
	task := suite.createTask("team task", member, team)
	survivor := suite.createTask("kept task", member, keep)
	suite.Require().NoError(suite.repos.Comments.Create(&models.TaskComment{TaskID: task.ID, AuthorID: member.ID, Content: "hi"}))

	suite.Require().NoError(suite.repos.Departments.Delete(hq.ID))

	var count int64
	suite.db.Model(&models.Department{}).Where("id IN ?", []uint64{hq.ID, team.ID}).Count(&count)
	suite.Equal(int64(0), count)
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.Equal(int64(0), count)
	suite.db.Model(&models.TaskComment{}).Count(&count)
	suite.Equal(int64(0), count)
	suite.db.Model(&models.Task{}).Where("id = ?", survivor.ID).Count(&count)
	suite.Equal(int64(1), count)

	reloaded, err := suite.repos.Users.FindByID(member.ID)
	suite.Require().NoError(err)
	suite.Nil(reloaded.DepartmentID)
}

func (suite *RepositoryTestSuite) TestDependenciesAndDependents() {
	dept := suite.createDepartment("D", nil)
	u := suite.createUser("u", "A", models.RankStaff, dept)
	base := suite.createTask("base", u, dept)
	follow := suite.createTask("follow", u, dept)

	suite.Require().NoError(suite.repos.Tasks.SetDependencies(follow.ID, []uint64{base.ID}))

	ids, err := suite.repos.Tasks.DependencyIDs(follow.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{base.ID}, ids)

	dependents, err := suite.repos.Tasks.ListDependents(base.ID)
	suite.Require().NoError(err)
	suite.Require().Len(dependents, 1)
	suite.Equal(follow.ID, dependents[0].ID)

	suite.Require().NoError(suite.repos.Tasks.SetDependencies(follow.ID, nil))
	ids, err = suite.repos.Tasks.DependencyIDs(follow.ID)
	suite.Require().NoError(err)
	suite.Empty(ids)
}

func (suite *RepositoryTestSuite) TestScheduleConflict() {
	dept := suite.createDepartment("D", nil)
	u := suite.createUser("u", "A", models.RankStaff, dept)
	existing := suite.createTask("existing", u, dept)

	conflict, err := suite.repos.Tasks.HasScheduleConflict(u.ID, existing.StartDate.Add(time.Hour), existing.DueDate.Add(time.Hour), 0)
	suite.Require().NoError(err)
	suite.True(conflict)

	conflict, err = suite.repos.Tasks.HasScheduleConflict(u.ID, existing.DueDate.Add(time.Hour), existing.DueDate.Add(5*time.Hour), 0)
	suite.Require().NoError(err)
	suite.False(conflict)

	conflict, err = suite.repos.Tasks.HasScheduleConflict(u.ID, existing.StartDate, existing.DueDate, existing.ID)
	suite.Require().NoError(err)
	suite.False(conflict)
}

func (suite *RepositoryTestSuite) TestTransactionRollsBack() {
	dept := suite.createDepartment("D", nil)

	err := suite.repos.Transaction(func(tx *Repositories) error {
		if err := tx.Departments.Create(&models.Department{Name: "tmp", Code: "TMP"}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	suite.ErrorIs(err, gorm.ErrInvalidData)

	_, err = suite.repos.Departments.FindByCode("TMP")
	suite.ErrorIs(err, gorm.ErrRecordNotFound)

	_, err = suite.repos.Departments.FindByCode(dept.Code)
	suite.NoError(err)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
