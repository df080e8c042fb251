package services

import (
	"time"

	"github.com/yukikurage/workforce-api/internal/models"
)

func (suite *ServiceTestSuite) reportService() *ReportService {
	svc := NewReportService(suite.repos)
	svc.now = suite.clock()
	return svc
}

func (suite *ServiceTestSuite) period() Period {
	return Period{Start: suite.now.AddDate(0, 0, -7), End: suite.now}
}

func (suite *ServiceTestSuite) evaluate(task *models.Task, score int, feedback string) {
	suite.Require().NoError(suite.db.Create(&models.TaskEvaluation{
		TaskID:           task.ID,
		EvaluatorID:      suite.manager.ID,
		Difficulty:       task.Difficulty,
		PerformanceScore: score,
		Feedback:         feedback,
		CreatedAt:        suite.now,
	}).Error)
}

func (suite *ServiceTestSuite) TestPersonalReportRequiresRange() {
	svc := suite.reportService()
	_, err := svc.PersonalReport(suite.emp1, nil, Period{})
	suite.ErrorIs(err, ErrReportRangeRequired)
	_, err = svc.PersonalReport(suite.emp1, nil, Period{Start: suite.now, End: suite.now.AddDate(0, 0, -1)})
	suite.ErrorIs(err, ErrReportRangeRequired)
}

func (suite *ServiceTestSuite) TestPersonalReportWithoutTasks() {
	report, err := suite.reportService().PersonalReport(suite.emp1, nil, suite.period())
	suite.Require().NoError(err)
	suite.Zero(report.BasicStats.TotalTasks)
	suite.Nil(report.TimeStats.AverageCompletionTime)
	suite.Nil(report.ComparisonStats)
	suite.NotNil(report.DistributionStats.StatusDistribution)
}

func (suite *ServiceTestSuite) TestPersonalReport() {
	svc := suite.reportService()
	done := suite.createTask("완료", suite.emp1, suite.t1, withStatus(models.TaskStatusDone))
	suite.createTask("지연", suite.emp1, suite.t1, withStatus(models.TaskStatusInProgress), withDue(suite.now.Add(-time.Hour)))
	suite.createTask("오래된 작업", suite.emp1, suite.t1, func(t *models.Task) {
		t.CreatedAt = suite.now.AddDate(0, -2, 0)
	})
	suite.evaluate(done, 4, "좋음")

	report, err := svc.PersonalReport(suite.emp1, nil, suite.period())
	suite.Require().NoError(err)
	suite.Equal(BasicStats{TotalTasks: 2, CompletedTasks: 1, InProgressTasks: 1, DelayedTasks: 1}, report.BasicStats)
	suite.Require().NotNil(report.TimeStats.AverageCompletionTime)
	suite.Equal("24h 0m", *report.TimeStats.AverageCompletionTime)
	suite.InDelta(4.0, report.QualityStats.AverageScore, 0.001)

	// Employees get an empty comparison object.
	suite.Require().NotNil(report.ComparisonStats)
	suite.Nil(report.ComparisonStats.TeamComparison)
	suite.Nil(report.ComparisonStats.DepartmentComparison)

	managed, err := svc.PersonalReport(suite.manager, &suite.emp1.ID, suite.period())
	suite.Require().NoError(err)
	suite.Equal(report.BasicStats, managed.BasicStats)
	suite.Require().NotNil(managed.ComparisonStats)
	suite.NotNil(managed.ComparisonStats.TeamComparison)
}

func (suite *ServiceTestSuite) TestPersonalReportPermissions() {
	svc := suite.reportService()

	_, err := svc.PersonalReport(suite.emp1, &suite.emp2.ID, suite.period())
	suite.ErrorIs(err, ErrPermissionDenied)

	_, err = svc.PersonalReport(suite.outsider, &suite.emp1.ID, suite.period())
	suite.ErrorIs(err, ErrPermissionDenied)

	missing := uint64(9999)
	_, err = svc.PersonalReport(suite.admin, &missing, suite.period())
	suite.ErrorIs(err, ErrUserNotFound)

	_, err = svc.PersonalReport(suite.director, &suite.emp3.ID, suite.period())
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestDepartmentReport() {
	svc := suite.reportService()
	suite.createTask("T1 완료", suite.emp1, suite.t1, withStatus(models.TaskStatusDone))
	suite.createTask("T2 진행", suite.emp3, suite.t2, withStatus(models.TaskStatusInProgress))
	suite.createTask("범위 밖", suite.emp3, suite.t2, func(t *models.Task) {
		t.StartDate = suite.now.AddDate(0, -3, 0)
	})

	_, err := svc.DepartmentReport(suite.emp1, suite.t1.ID, suite.period())
	suite.ErrorIs(err, ErrPermissionDenied)
	_, err = svc.DepartmentReport(suite.manager, suite.t2.ID, suite.period())
	suite.ErrorIs(err, ErrPermissionDenied)
	_, err = svc.DepartmentReport(suite.admin, 9999, suite.period())
	suite.ErrorIs(err, ErrDepartmentNotFound)

	report, err := svc.DepartmentReport(suite.director, suite.hq1.ID, suite.period())
	suite.Require().NoError(err)
	suite.Equal("HQ1", report.Department.Code)
	suite.Equal(2, report.BasicStats.TotalTasks)
	suite.Equal(1, report.BasicStats.CompletedTasks)
	suite.Len(report.Members, 5)

	team, err := svc.DepartmentReport(suite.manager, suite.t1.ID, suite.period())
	suite.Require().NoError(err)
	suite.Equal(1, team.BasicStats.TotalTasks)
	suite.Equal("2024-03-08", team.Period.StartDate)
	suite.Equal("2024-03-15", team.Period.EndDate)
}

func (suite *ServiceTestSuite) TestPerformanceEvaluationRanks() {
	svc := suite.reportService()
	mine := suite.createTask("내 작업", suite.emp1, suite.t1, withStatus(models.TaskStatusDone))
	theirs := suite.createTask("동료 작업", suite.emp2, suite.t1, withStatus(models.TaskStatusDone))
	suite.evaluate(mine, 5, "훌륭함")
	suite.evaluate(theirs, 3, "")

	report, err := svc.PerformanceEvaluation(suite.emp1, nil, suite.period())
	suite.Require().NoError(err)
	suite.Equal("Kimemp1", report.Employee.Name)
	suite.Equal("T1 부서", report.Employee.Department)
	suite.InDelta(5.0, report.AverageScore, 0.001)
	suite.Equal(1, report.EvaluationCount)
	suite.Equal(1, report.RankInTeam)
	suite.Equal(3, report.TeamSize)
	suite.Equal(1, report.RankInDepartment)
	suite.Equal(5, report.DepartmentSize)
	suite.Require().Len(report.RecentFeedback, 1)
	suite.Equal("훌륭함", report.RecentFeedback[0].Feedback)

	peer, err := svc.PerformanceEvaluation(suite.manager, &suite.emp2.ID, suite.period())
	suite.Require().NoError(err)
	suite.Equal(2, peer.RankInTeam)
	suite.Empty(peer.RecentFeedback)
}
