package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/workforce-api/internal/models"
)

func (suite *ServiceTestSuite) dashboardService() *DashboardService {
	svc := NewDashboardService(suite.repos, suite.scopes)
	svc.now = suite.clock()
	return svc
}

func withPriority(p models.TaskPriority) taskOption {
	return func(t *models.Task) { t.Priority = p }
}

// seedDashboard creates four tasks in T1 and one in T2.
func (suite *ServiceTestSuite) seedDashboard() (running, finished, upcoming, late *models.Task) {
	running = suite.createTask("진행", suite.emp1, suite.t1, withStatus(models.TaskStatusInProgress))
	finished = suite.createTask("완료", suite.emp1, suite.t1, withStatus(models.TaskStatusDone))
	upcoming = suite.createTask("예정", suite.emp2, suite.t1,
		withDue(suite.now.Add(3*24*time.Hour)), withPriority(models.TaskPriorityHigh))
	late = suite.createTask("지연", suite.emp2, suite.t1,
		withStatus(models.TaskStatusInProgress), withPriority(models.TaskPriorityUrgent), func(t *models.Task) {
			t.StartDate = suite.now.Add(-5 * 24 * time.Hour)
			t.DueDate = suite.now.Add(-2 * 24 * time.Hour)
		})
	suite.createTask("다른 팀", suite.emp3, suite.t2)
	return
}

func (suite *ServiceTestSuite) TestWorkload() {
	svc := suite.dashboardService()
	suite.seedDashboard()

	entries, err := svc.Workload(suite.manager, suite.now, nil)
	suite.Require().NoError(err)
	counts := make(map[uint64]int)
	for _, e := range entries {
		counts[e.UserID] = e.TasksCount
	}
	suite.Equal(map[uint64]int{suite.manager.ID: 0, suite.emp1.ID: 2, suite.emp2.ID: 1}, counts)

	entries, err = svc.Workload(suite.emp1, suite.now, nil)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Equal("emp1 Kim", entries[0].UserName)

	entries, err = svc.Workload(suite.manager, suite.now, &suite.t2.ID)
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func (suite *ServiceTestSuite) TestDashboardTaskLists() {
	svc := suite.dashboardService()
	running, _, upcoming, late := suite.seedDashboard()

	today, err := svc.TodayTasks(suite.manager)
	suite.Require().NoError(err)
	suite.ElementsMatch([]uint64{running.ID, upcoming.ID}, idsOf(today))

	delayed, err := svc.DelayedTasks(suite.manager)
	suite.Require().NoError(err)
	suite.Equal([]uint64{late.ID}, idsOf(delayed))

	deadlines, err := svc.UpcomingDeadlines(suite.manager)
	suite.Require().NoError(err)
	suite.Equal([]uint64{upcoming.ID}, idsOf(deadlines))

	mine, err := svc.TodayTasks(suite.emp1)
	suite.Require().NoError(err)
	suite.Equal([]uint64{running.ID}, idsOf(mine))
}

func (suite *ServiceTestSuite) TestPriorityStats() {
	suite.seedDashboard()

	stats, err := suite.dashboardService().PriorityStats(suite.manager)
	suite.Require().NoError(err)
	suite.Equal([]PriorityStat{
		{Priority: models.TaskPriorityLow, Count: 0, Percentage: 0},
		{Priority: models.TaskPriorityMedium, Count: 2, Percentage: 50},
		{Priority: models.TaskPriorityHigh, Count: 1, Percentage: 25},
		{Priority: models.TaskPriorityUrgent, Count: 1, Percentage: 25},
	}, stats)
}

func (suite *ServiceTestSuite) TestTeamPerformanceForStaffUsesOwnDepartment() {
	_, finished, _, _ := suite.seedDashboard()
	suite.evaluate(finished, 4, "")

	rows, err := suite.dashboardService().TeamPerformance(suite.emp1)
	suite.Require().NoError(err)
	byUser := make(map[uint64]MemberPerformance)
	for _, r := range rows {
		byUser[r.UserID] = r
	}
	suite.Len(byUser, 3)
	suite.Equal(MemberPerformance{
		UserID:         suite.emp1.ID,
		Name:           "Kimemp1",
		CompletionRate: 50,
		TaskCount:      2,
		AverageScore:   4,
	}, byUser[suite.emp1.ID])
	suite.Zero(byUser[suite.emp2.ID].CompletionRate)
}

func (suite *ServiceTestSuite) TestRecentActivity() {
	running, _, _, _ := suite.seedDashboard()
	tasks := NewTaskService(suite.repos, suite.scopes, suite.files, zap.NewNop())
	tasks.now = suite.clock()

	review := models.TaskStatusReview
	_, err := tasks.Update(suite.emp1, running.ID, UpdateTaskInput{Status: &review})
	suite.Require().NoError(err)

	activities, err := suite.dashboardService().RecentActivity(suite.manager)
	suite.Require().NoError(err)
	suite.Require().Len(activities, 1)
	suite.Equal(ActivityStatusChanged, activities[0].Type)
	suite.Equal("작업 상태가 진행중에서 검토중로 변경되었습니다.", activities[0].Description)
	suite.Equal("진행", activities[0].TaskTitle)

	activities, err = suite.dashboardService().RecentActivity(suite.emp3)
	suite.Require().NoError(err)
	suite.Empty(activities)
}

func (suite *ServiceTestSuite) TestStatsCounts() {
	suite.seedDashboard()

	stats, err := suite.dashboardService().Stats(suite.manager)
	suite.Require().NoError(err)
	suite.Equal(4, stats.Total.Count)
	suite.Equal(2, stats.InProgress.Count)
	suite.Equal(1, stats.Completed.Count)
	suite.Equal(1, stats.Delayed.Count)
}
