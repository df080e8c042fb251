package services

import (
	"github.com/yukikurage/workforce-api/internal/models"
)

func (suite *ServiceTestSuite) userService() *UserService {
	svc := NewUserService(suite.repos, suite.scopes)
	svc.now = suite.clock()
	return svc
}

func (suite *ServiceTestSuite) TestCreateUserRequiresAdmin() {
	svc := suite.userService()
	input := CreateUserInput{Username: "newbie", Password: "password123", FirstName: "길동", LastName: "홍"}

	_, err := svc.Create(suite.manager, input)
	suite.ErrorIs(err, ErrPermissionDenied)

	user, err := svc.Create(suite.admin, input)
	suite.Require().NoError(err)
	suite.Equal(models.RoleEmployee, user.Role)
	suite.Equal(models.RankStaff, user.Rank)
	suite.Regexp(`^EMP[0-9A-F]{6}$`, user.EmployeeID)
	suite.True(user.IsActive)
	suite.True(user.DateJoined.Equal(suite.now))

	_, err = svc.Create(suite.admin, input)
	suite.ErrorIs(err, ErrUsernameTaken)

	_, err = svc.Create(suite.admin, CreateUserInput{Username: "ab", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidUsername)
	_, err = svc.Create(suite.admin, CreateUserInput{Username: "shorty", Password: "short"})
	suite.ErrorIs(err, ErrPasswordTooShort)

	missing := uint64(9999)
	_, err = svc.Create(suite.admin, CreateUserInput{Username: "lost", Password: "password123", DepartmentID: &missing})
	suite.ErrorIs(err, ErrDepartmentNotFound)
}

func (suite *ServiceTestSuite) TestSelfUpdateIsRestricted() {
	svc := suite.userService()

	email := "emp1@example.com"
	user, err := svc.Update(suite.emp1, suite.emp1.ID, UpdateUserInput{Email: &email})
	suite.Require().NoError(err)
	suite.Equal(email, user.Email)
	suite.Require().NotNil(user.Department)
	suite.Equal(suite.t1.ID, user.Department.ID)

	rank := models.RankDirector
	_, err = svc.Update(suite.emp1, suite.emp1.ID, UpdateUserInput{Rank: &rank})
	suite.ErrorIs(err, ErrSelfUpdateRestricted)

	_, err = svc.Update(suite.emp1, suite.emp2.ID, UpdateUserInput{Email: &email})
	suite.ErrorIs(err, ErrUserNotFound)

	_, err = svc.Update(suite.manager, suite.emp1.ID, UpdateUserInput{Email: &email})
	suite.ErrorIs(err, ErrPermissionDenied)

	promoted, err := svc.Update(suite.admin, suite.emp1.ID, UpdateUserInput{Rank: &rank, ClearDepartment: true})
	suite.Require().NoError(err)
	suite.Equal(models.RankDirector, promoted.Rank)
	suite.Nil(promoted.DepartmentID)
}

func (suite *ServiceTestSuite) TestUserVisibility() {
	svc := suite.userService()

	users, total, err := svc.List(suite.manager, ListUsersInput{})
	suite.Require().NoError(err)
	suite.EqualValues(3, total)
	suite.Len(users, 3)

	_, total, err = svc.List(suite.director, ListUsersInput{})
	suite.Require().NoError(err)
	suite.EqualValues(5, total)

	_, total, err = svc.List(suite.emp1, ListUsersInput{})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)

	_, err = svc.Get(suite.outsider, suite.emp1.ID)
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *ServiceTestSuite) TestDeactivateAndCurrentTasks() {
	svc := suite.userService()
	running := suite.createTask("진행", suite.emp1, suite.t1, withStatus(models.TaskStatusInProgress))
	suite.createTask("대기", suite.emp1, suite.t1)

	tasks, err := svc.CurrentTasks(suite.manager, suite.emp1.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{running.ID}, idsOf(tasks))

	suite.ErrorIs(svc.Deactivate(suite.manager, suite.emp1.ID), ErrPermissionDenied)
	suite.Require().NoError(svc.Deactivate(suite.admin, suite.emp1.ID))

	user, err := svc.Get(suite.admin, suite.emp1.ID)
	suite.Require().NoError(err)
	suite.False(user.IsActive)
}
