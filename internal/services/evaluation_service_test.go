package services

import (
	"go.uber.org/zap"

	"github.com/yukikurage/workforce-api/internal/models"
)

func (suite *ServiceTestSuite) evaluationService() *EvaluationService {
	svc := NewEvaluationService(suite.repos, suite.scopes, zap.NewNop())
	svc.now = suite.clock()
	return svc
}

func score(v int) *int { return &v }

func (suite *ServiceTestSuite) TestEvaluateCompletedTask() {
	svc := suite.evaluationService()
	task := suite.createTask("완료 건", suite.emp1, suite.t1, withStatus(models.TaskStatusDone))

	feedback := " 잘했습니다 "
	evaluation, err := svc.Create(suite.manager, task.ID, EvaluationInput{PerformanceScore: score(4), Feedback: &feedback})
	suite.Require().NoError(err)
	suite.Equal(4, evaluation.PerformanceScore)
	suite.Equal(models.TaskDifficultyMedium, evaluation.Difficulty)
	suite.Equal("잘했습니다", evaluation.Feedback)
	suite.Equal(suite.manager.ID, evaluation.EvaluatorID)

	notifications := suite.notifications(suite.emp1)
	suite.Require().Len(notifications, 1)
	suite.Equal(models.NotificationTaskReviewCompleted, notifications[0].NotificationType)
	suite.Equal("작업 평가가 완료되었습니다: 완료 건", notifications[0].Message)
}

func (suite *ServiceTestSuite) TestEvaluationRules() {
	svc := suite.evaluationService()
	open := suite.createTask("진행 건", suite.emp1, suite.t1)
	done := suite.createTask("완료 건", suite.emp3, suite.t2, withStatus(models.TaskStatusDone))

	_, err := svc.Create(suite.manager, open.ID, EvaluationInput{PerformanceScore: score(3)})
	suite.ErrorIs(err, ErrTaskNotDone)

	_, err = svc.Create(suite.manager, done.ID, EvaluationInput{PerformanceScore: score(6)})
	suite.ErrorIs(err, ErrInvalidScore)
	_, err = svc.Create(suite.manager, done.ID, EvaluationInput{})
	suite.ErrorIs(err, ErrInvalidScore)

	// Outside the manager's department.
	_, err = svc.Create(suite.manager, done.ID, EvaluationInput{PerformanceScore: score(3)})
	suite.ErrorIs(err, ErrTaskNotFound)

	// The assignee can see the task but may not evaluate it.
	_, err = svc.Create(suite.emp3, done.ID, EvaluationInput{PerformanceScore: score(5)})
	suite.ErrorIs(err, ErrPermissionDenied)

	hard := models.TaskDifficultyHard
	evaluation, err := svc.Create(suite.director, done.ID, EvaluationInput{PerformanceScore: score(2), Difficulty: &hard})
	suite.Require().NoError(err)
	suite.Equal(models.TaskDifficultyHard, evaluation.Difficulty)

	_, err = svc.Update(suite.manager, evaluation.ID, EvaluationInput{PerformanceScore: score(5)})
	suite.ErrorIs(err, ErrEvaluationNotFound)

	updated, err := svc.Update(suite.director, evaluation.ID, EvaluationInput{PerformanceScore: score(5)})
	suite.Require().NoError(err)
	suite.Equal(5, updated.PerformanceScore)
	suite.Equal(models.TaskDifficultyHard, updated.Difficulty)

	suite.ErrorIs(svc.Delete(suite.emp3, evaluation.ID), ErrPermissionDenied)
	suite.Require().NoError(svc.Delete(suite.admin, evaluation.ID))
}
