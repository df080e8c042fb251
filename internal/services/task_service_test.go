package services

import (
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yukikurage/workforce-api/internal/models"
)

func (suite *ServiceTestSuite) TestCreateTaskNotifiesAssignee() {
	svc := suite.taskService()

	detail, err := svc.Create(suite.manager, CreateTaskInput{
		Title:        "분기 보고서",
		AssigneeID:   suite.emp1.ID,
		DepartmentID: suite.t1.ID,
		StartDate:    suite.now,
		DueDate:      suite.now.Add(5 * 24 * time.Hour),
	})
	suite.Require().NoError(err)
	suite.Equal(suite.manager.ID, detail.Task.ReporterID)
	suite.Equal(models.TaskStatusTodo, detail.Task.Status)
	suite.Equal("emp1", detail.Task.Assignee.Username)
	suite.Empty(detail.DependencyIDs)

	notifications := suite.notifications(suite.emp1)
	suite.Require().Len(notifications, 1)
	suite.Equal(models.NotificationTaskAssigned, notifications[0].NotificationType)
	suite.Equal("새로운 작업이 배정되었습니다: 분기 보고서", notifications[0].Message)
	suite.Equal(models.NotificationPriorityMedium, notifications[0].Priority)
	suite.Equal(detail.Task.ID, *notifications[0].TaskID)
}

func (suite *ServiceTestSuite) TestCreateSelfAssignedTaskIsSilent() {
	svc := suite.taskService()

	_, err := svc.Create(suite.emp1, CreateTaskInput{
		Title:        "개인 작업",
		AssigneeID:   suite.emp1.ID,
		DepartmentID: suite.t1.ID,
		StartDate:    suite.now,
		DueDate:      suite.now.Add(24 * time.Hour),
	})
	suite.Require().NoError(err)
	suite.Empty(suite.notifications(suite.emp1))
}

func (suite *ServiceTestSuite) TestCreateTaskValidation() {
	svc := suite.taskService()

	_, err := svc.Create(suite.manager, CreateTaskInput{
		Title:        "역순 일정",
		AssigneeID:   suite.emp1.ID,
		DepartmentID: suite.t1.ID,
		StartDate:    suite.now,
		DueDate:      suite.now.Add(-time.Hour),
	})
	suite.ErrorIs(err, ErrInvalidSchedule)

	_, err = svc.Create(suite.manager, CreateTaskInput{
		Title:        "없는 담당자",
		AssigneeID:   9999,
		DepartmentID: suite.t1.ID,
		StartDate:    suite.now,
		DueDate:      suite.now,
	})
	suite.ErrorIs(err, ErrAssigneeNotFound)

	_, err = svc.Create(suite.manager, CreateTaskInput{
		Title:        "없는 부서",
		AssigneeID:   suite.emp1.ID,
		DepartmentID: 9999,
		StartDate:    suite.now,
		DueDate:      suite.now,
	})
	suite.ErrorIs(err, ErrDepartmentNotFound)
}

func (suite *ServiceTestSuite) TestUpdateToReviewWritesHistoryAndNotifiesReviewers() {
	svc := suite.taskService()
	task := suite.createTask("검토 요청", suite.emp1, suite.t1, withReporter(suite.manager))

	review := models.TaskStatusReview
	detail, err := svc.Update(suite.emp1, task.ID, UpdateTaskInput{Status: &review, HistoryComment: "확인 부탁드립니다"})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusReview, detail.Task.Status)

	var histories []models.TaskHistory
	suite.Require().NoError(suite.db.Where("task_id = ?", task.ID).Find(&histories).Error)
	suite.Require().Len(histories, 1)
	suite.Equal(models.TaskStatusTodo, histories[0].PreviousStatus)
	suite.Equal(models.TaskStatusReview, histories[0].NewStatus)
	suite.Equal(suite.emp1.ID, histories[0].ChangedByID)
	suite.Equal("확인 부탁드립니다", histories[0].Comment)

	suite.Equal([]models.NotificationType{
		models.NotificationTaskReviewed,
	}, suite.notificationTypes(suite.manager))
	suite.Empty(suite.notifications(suite.emp1))

	reviewed := suite.notifications(suite.manager)[0]
	suite.Equal("작업 검토가 요청되었습니다: 검토 요청", reviewed.Message)
	suite.Equal(models.NotificationPriorityHigh, reviewed.Priority)
}

func (suite *ServiceTestSuite) TestPlainStatusChangeDoesNotNotifyReporter() {
	svc := suite.taskService()
	task := suite.createTask("착수", suite.emp1, suite.t1, withReporter(suite.manager))

	inProgress := models.TaskStatusInProgress
	_, err := svc.Update(suite.emp1, task.ID, UpdateTaskInput{Status: &inProgress})
	suite.Require().NoError(err)

	suite.Empty(suite.notifications(suite.manager))
	suite.Empty(suite.notifications(suite.emp1))
}

func (suite *ServiceTestSuite) TestUpdateWithoutStatusChangeWritesNoHistory() {
	svc := suite.taskService()
	task := suite.createTask("제목 변경", suite.emp1, suite.t1)

	title := "새 제목"
	_, err := svc.Update(suite.emp1, task.ID, UpdateTaskInput{Title: &title})
	suite.Require().NoError(err)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.TaskHistory{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *ServiceTestSuite) TestCompletingTaskNotifiesDependents() {
	svc := suite.taskService()
	first := suite.createTask("선행", suite.emp1, suite.t1)
	other := suite.createTask("다른 선행", suite.emp1, suite.t1)
	ready := suite.createTask("후행", suite.emp2, suite.t1)
	waiting := suite.createTask("대기", suite.emp3, suite.t2)
	suite.Require().NoError(suite.repos.Tasks.SetDependencies(ready.ID, []uint64{first.ID}))
	suite.Require().NoError(suite.repos.Tasks.SetDependencies(waiting.ID, []uint64{first.ID, other.ID}))

	done := models.TaskStatusDone
	detail, err := svc.Update(suite.emp1, first.ID, UpdateTaskInput{Status: &done})
	suite.Require().NoError(err)
	suite.Require().NotNil(detail.Task.CompletedAt)
	suite.True(detail.Task.CompletedAt.Equal(suite.now))

	suite.Equal([]models.NotificationType{
		models.NotificationTaskDependencyCompleted,
		models.NotificationTaskUnblocked,
	}, suite.notificationTypes(suite.emp2))
	suite.Equal([]models.NotificationType{
		models.NotificationTaskDependencyCompleted,
	}, suite.notificationTypes(suite.emp3))

	completed := suite.notifications(suite.emp3)[0]
	suite.Equal("선행 작업이 완료되었습니다: 선행", completed.Message)
	suite.Equal(waiting.ID, *completed.TaskID)

	inProgress := models.TaskStatusInProgress
	detail, err = svc.Update(suite.emp1, first.ID, UpdateTaskInput{Status: &inProgress})
	suite.Require().NoError(err)
	suite.Nil(detail.Task.CompletedAt)
}

func (suite *ServiceTestSuite) TestPriorityChangeNotifiesAssignee() {
	svc := suite.taskService()
	task := suite.createTask("긴급 건", suite.emp1, suite.t1)

	urgent := models.TaskPriorityUrgent
	_, err := svc.Update(suite.manager, task.ID, UpdateTaskInput{Priority: &urgent})
	suite.Require().NoError(err)

	notifications := suite.notifications(suite.emp1)
	suite.Require().Len(notifications, 1)
	suite.Equal(models.NotificationTaskPriorityChanged, notifications[0].NotificationType)
	suite.Equal("작업 우선순위가 MEDIUM에서 URGENT로 변경되었습니다: 긴급 건", notifications[0].Message)
	suite.Equal(models.NotificationPriorityHigh, notifications[0].Priority)

	low := models.TaskPriorityLow
	_, err = svc.Update(suite.manager, task.ID, UpdateTaskInput{Priority: &low})
	suite.Require().NoError(err)
	notifications = suite.notifications(suite.emp1)
	suite.Require().Len(notifications, 2)
	suite.Equal(models.NotificationPriorityMedium, notifications[1].Priority)
}

func (suite *ServiceTestSuite) TestReassignmentNotifiesNewAssignee() {
	svc := suite.taskService()
	task := suite.createTask("인계", suite.emp1, suite.t1)

	_, err := svc.Update(suite.manager, task.ID, UpdateTaskInput{AssigneeID: &suite.emp2.ID})
	suite.Require().NoError(err)
	suite.Equal([]models.NotificationType{models.NotificationTaskAssigned}, suite.notificationTypes(suite.emp2))

	_, err = svc.Update(suite.manager, task.ID, UpdateTaskInput{AssigneeID: &suite.manager.ID})
	suite.Require().NoError(err)
	suite.Empty(suite.notifications(suite.manager))
}

func (suite *ServiceTestSuite) TestDueSoonNotificationIsDeduplicated() {
	svc := suite.taskService()
	task := suite.createTask("마감 임박", suite.emp1, suite.t1, withDue(suite.now.Add(60*time.Hour)))

	for _, title := range []string{"마감 임박", "마감 임박!"} {
		t := title
		_, err := svc.Update(suite.emp1, task.ID, UpdateTaskInput{Title: &t})
		suite.Require().NoError(err)
	}

	notifications := suite.notifications(suite.emp1)
	suite.Require().Len(notifications, 1)
	suite.Equal(models.NotificationTaskDueSoon, notifications[0].NotificationType)
	suite.Equal("작업 마감이 2일 남았습니다: 마감 임박", notifications[0].Message)
	suite.Require().NotNil(notifications[0].ExpiresAt)
	suite.True(notifications[0].ExpiresAt.Equal(task.DueDate))

	suite.now = suite.now.Add(25 * time.Hour)
	_, err := svc.Update(suite.emp1, task.ID, UpdateTaskInput{})
	suite.Require().NoError(err)

	notifications = suite.notifications(suite.emp1)
	suite.Require().Len(notifications, 2)
	suite.Equal("작업 마감이 1일 남았습니다: 마감 임박!", notifications[1].Message)
}

func (suite *ServiceTestSuite) TestOverdueNotifiesAssigneeAndReviewers() {
	svc := suite.taskService()
	task := suite.createTask("지연", suite.emp1, suite.t1,
		withStatus(models.TaskStatusInProgress), withDue(suite.now.Add(-2*time.Hour)))

	detail, err := svc.Update(suite.emp1, task.ID, UpdateTaskInput{})
	suite.Require().NoError(err)
	suite.True(detail.IsDelayed)

	suite.Equal([]models.NotificationType{models.NotificationTaskOverdue}, suite.notificationTypes(suite.emp1))
	suite.Equal([]models.NotificationType{models.NotificationTaskOverdue}, suite.notificationTypes(suite.manager))
	suite.Equal("작업이 마감일을 초과했습니다: 지연", suite.notifications(suite.manager)[0].Message)

	_, err = svc.Update(suite.emp1, task.ID, UpdateTaskInput{})
	suite.Require().NoError(err)
	suite.Len(suite.notifications(suite.emp1), 1)
}

func (suite *ServiceTestSuite) TestHoldTaskIsNotOverdue() {
	svc := suite.taskService()
	task := suite.createTask("보류", suite.emp1, suite.t1,
		withStatus(models.TaskStatusHold), func(t *models.Task) {
			t.StartDate = suite.now.Add(-72 * time.Hour)
			t.DueDate = suite.now.Add(-48 * time.Hour)
		})

	_, err := svc.Update(suite.emp1, task.ID, UpdateTaskInput{})
	suite.Require().NoError(err)
	suite.Empty(suite.notifications(suite.emp1))
}

func (suite *ServiceTestSuite) TestUpdateRollsBackWhenNotificationsFail() {
	svc := suite.taskService()
	task := suite.createTask("원자성", suite.emp1, suite.t1, withReporter(suite.manager))
	suite.Require().NoError(suite.db.Migrator().DropTable(&models.Notification{}))

	review := models.TaskStatusReview
	_, err := svc.Update(suite.emp1, task.ID, UpdateTaskInput{Status: &review})
	suite.Require().Error(err)

	reloaded, err := suite.repos.Tasks.FindByID(task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusTodo, reloaded.Status)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.TaskHistory{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *ServiceTestSuite) TestTaskVisibilityFollowsScope() {
	svc := suite.taskService()
	own := suite.createTask("T1 작업", suite.emp1, suite.t1)
	suite.createTask("T2 작업", suite.emp3, suite.t2)
	other := suite.createTask("HQ2 작업", suite.outsider, suite.hq2)

	titles := func(actor *models.User, input ListTasksInput) []string {
		tasks, total, err := svc.List(actor, input)
		suite.Require().NoError(err)
		suite.Equal(int64(len(tasks)), total)
		var out []string
		for _, t := range tasks {
			out = append(out, t.Title)
		}
		return out
	}

	suite.Equal([]string{"T1 작업"}, titles(suite.emp1, ListTasksInput{}))
	suite.Equal([]string{"T1 작업"}, titles(suite.manager, ListTasksInput{}))
	suite.ElementsMatch([]string{"T1 작업", "T2 작업"}, titles(suite.director, ListTasksInput{}))
	suite.Len(titles(suite.admin, ListTasksInput{}), 3)

	suite.Empty(titles(suite.manager, ListTasksInput{DepartmentID: &suite.t2.ID}))
	suite.Equal([]string{"T2 작업"}, titles(suite.director, ListTasksInput{DepartmentID: &suite.t2.ID}))
	suite.ElementsMatch([]string{"T1 작업", "T2 작업"},
		titles(suite.director, ListTasksInput{DepartmentID: &suite.hq1.ID, IncludeChildDepts: true}))

	_, err := svc.Get(suite.outsider, own.ID)
	suite.ErrorIs(err, ErrTaskNotFound)
	_, err = svc.Get(suite.emp2, own.ID)
	suite.ErrorIs(err, ErrTaskNotFound)
	_, err = svc.Get(suite.director, other.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	detail, err := svc.Get(suite.director, own.ID)
	suite.Require().NoError(err)
	suite.Equal("T1 부서", detail.Task.Department.Name)
}

func (suite *ServiceTestSuite) TestListTasksFilters() {
	svc := suite.taskService()
	suite.createTask("Alpha 보고", suite.emp1, suite.t1, withStatus(models.TaskStatusInProgress))
	suite.createTask("Beta 회의", suite.emp2, suite.t1)
	suite.createTask("Gamma 정리", suite.emp2, suite.t1, withDue(suite.now.Add(30*24*time.Hour)))

	tasks, _, err := svc.List(suite.manager, ListTasksInput{Statuses: []models.TaskStatus{models.TaskStatusInProgress}})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal("Alpha 보고", tasks[0].Title)

	tasks, _, err = svc.List(suite.manager, ListTasksInput{Search: "beta"})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal("Beta 회의", tasks[0].Title)

	end := suite.now.Add(20 * 24 * time.Hour)
	tasks, _, err = svc.List(suite.manager, ListTasksInput{AssigneeID: &suite.emp2.ID, EndDate: &end})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal("Beta 회의", tasks[0].Title)

	tasks, _, err = svc.List(suite.manager, ListTasksInput{Ordering: "-due_date"})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 3)
	suite.Equal("Gamma 정리", tasks[0].Title)
}

func (suite *ServiceTestSuite) TestDeleteTaskRequiresPermission() {
	svc := suite.taskService()
	task := suite.createTask("삭제 대상", suite.emp1, suite.t1, withReporter(suite.manager))

	suite.ErrorIs(svc.Delete(suite.director, task.ID), ErrPermissionDenied)
	suite.ErrorIs(svc.Delete(suite.outsider, task.ID), ErrTaskNotFound)

	suite.Require().NoError(svc.Delete(suite.manager, task.ID))
	_, err := svc.Get(suite.admin, task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestUpdateDatesDetectsConflicts() {
	svc := suite.taskService()
	suite.createTask("진행 중", suite.emp1, suite.t1, withStatus(models.TaskStatusInProgress), func(t *models.Task) {
		t.StartDate = suite.now
		t.DueDate = suite.now.Add(5 * 24 * time.Hour)
	})
	moving := suite.createTask("이동", suite.emp1, suite.t1, func(t *models.Task) {
		t.StartDate = suite.now.Add(10 * 24 * time.Hour)
		t.DueDate = suite.now.Add(12 * 24 * time.Hour)
	})

	_, err := svc.UpdateDates(suite.emp1, moving.ID, suite.now.Add(2*24*time.Hour), suite.now.Add(3*24*time.Hour))
	suite.ErrorIs(err, ErrScheduleConflict)

	_, err = svc.UpdateDates(suite.emp1, moving.ID, suite.now.Add(3*24*time.Hour), suite.now.Add(2*24*time.Hour))
	suite.ErrorIs(err, ErrInvalidSchedule)

	start, due := suite.now.Add(6*24*time.Hour), suite.now.Add(7*24*time.Hour)
	detail, err := svc.UpdateDates(suite.emp1, moving.ID, start, due)
	suite.Require().NoError(err)
	suite.True(detail.Task.StartDate.Equal(start))
	suite.True(detail.Task.DueDate.Equal(due))
}

func (suite *ServiceTestSuite) TestSetDependencies() {
	svc := suite.taskService()
	task := suite.createTask("후행", suite.emp1, suite.t1)
	before := suite.createTask("선행", suite.emp2, suite.t1)
	finished := suite.createTask("완료된 선행", suite.emp2, suite.t1, withStatus(models.TaskStatusDone))

	_, err := svc.SetDependencies(suite.manager, task.ID, []uint64{task.ID})
	suite.ErrorIs(err, ErrInvalidDependency)
	_, err = svc.SetDependencies(suite.manager, task.ID, []uint64{9999})
	suite.ErrorIs(err, ErrInvalidDependency)

	ids, err := svc.SetDependencies(suite.manager, task.ID, []uint64{finished.ID})
	suite.Require().NoError(err)
	suite.Equal([]uint64{finished.ID}, ids)
	suite.Empty(suite.notifications(suite.emp1))

	ids, err = svc.SetDependencies(suite.manager, task.ID, []uint64{before.ID, finished.ID, before.ID})
	suite.Require().NoError(err)
	suite.Equal([]uint64{before.ID, finished.ID}, ids)
	suite.Equal([]models.NotificationType{models.NotificationTaskBlocked}, suite.notificationTypes(suite.emp1))

	ids, err = svc.SetDependencies(suite.manager, task.ID, nil)
	suite.Require().NoError(err)
	suite.Empty(ids)
}

func (suite *ServiceTestSuite) TestCalendarWindow() {
	svc := suite.taskService()
	day := 24 * time.Hour
	suite.createTask("창 안 시작", suite.emp1, suite.t1, func(t *models.Task) {
		t.StartDate = suite.now.Add(2 * day)
		t.DueDate = suite.now.Add(20 * day)
	})
	suite.createTask("창 안 마감", suite.emp2, suite.t1, func(t *models.Task) {
		t.StartDate = suite.now.Add(-20 * day)
		t.DueDate = suite.now.Add(3 * day)
	})
	suite.createTask("창 밖", suite.emp2, suite.t1, func(t *models.Task) {
		t.StartDate = suite.now.Add(-20 * day)
		t.DueDate = suite.now.Add(30 * day)
	})

	tasks, err := svc.Calendar(suite.manager, CalendarInput{Start: suite.now, End: suite.now.Add(5 * day)})
	suite.Require().NoError(err)
	suite.Len(tasks, 2)

	tasks, err = svc.Calendar(suite.manager, CalendarInput{Start: suite.now, End: suite.now.Add(5 * day), AssigneeID: &suite.emp2.ID})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 1)
	suite.Equal("창 안 마감", tasks[0].Title)

	_, err = svc.Calendar(suite.manager, CalendarInput{Start: suite.now, End: suite.now.Add(-day)})
	suite.ErrorIs(err, ErrInvalidDateRange)
}

func (suite *ServiceTestSuite) TestDaysUntilDue() {
	now := suite.now
	assert.Equal(suite.T(), 2, DaysUntilDue(now.Add(60*time.Hour), now))
	assert.Equal(suite.T(), 0, DaysUntilDue(now.Add(23*time.Hour), now))
	assert.Equal(suite.T(), -1, DaysUntilDue(now.Add(-time.Hour), now))
}
