package services

import (
	"go.uber.org/zap"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/utils"
)

func (suite *ServiceTestSuite) commentService() *CommentService {
	svc := NewCommentService(suite.repos, suite.scopes, zap.NewNop())
	svc.now = suite.clock()
	return svc
}

func (suite *ServiceTestSuite) TestMentions() {
	suite.Equal([]string{"emp1", "kim.lee"}, Mentions("@emp1 확인 부탁, @kim.lee. 그리고 @emp1"))
	suite.Empty(Mentions("no mentions here"))
	suite.Empty(Mentions("email@"))
}

func (suite *ServiceTestSuite) TestCreateCommentNotifiesAssigneeAndMentions() {
	svc := suite.commentService()
	task := suite.createTask("리뷰", suite.emp1, suite.t1)

	comment, err := svc.Create(suite.manager, task.ID, "  @emp2 @manager @nobody 봐주세요 ")
	suite.Require().NoError(err)
	suite.Equal("@emp2 @manager @nobody 봐주세요", comment.Content)
	suite.Equal(suite.manager.ID, comment.AuthorID)

	suite.Equal([]models.NotificationType{models.NotificationTaskComment}, suite.notificationTypes(suite.emp1))
	suite.Equal("작업에 새로운 코멘트가 작성되었습니다: 리뷰", suite.notifications(suite.emp1)[0].Message)

	suite.Equal([]models.NotificationType{models.NotificationTaskMention}, suite.notificationTypes(suite.emp2))
	suite.Equal("작업 코멘트에서 회원님이 언급되었습니다: 리뷰", suite.notifications(suite.emp2)[0].Message)
	suite.Empty(suite.notifications(suite.manager))
}

func (suite *ServiceTestSuite) TestAssigneeCommentIsSilent() {
	svc := suite.commentService()
	task := suite.createTask("혼자", suite.emp1, suite.t1)

	_, err := svc.Create(suite.emp1, task.ID, "메모")
	suite.Require().NoError(err)
	suite.Empty(suite.notifications(suite.emp1))

	_, err = svc.Create(suite.emp1, task.ID, "   ")
	suite.ErrorIs(err, ErrEmptyComment)
}

func (suite *ServiceTestSuite) TestCommentVisibilityAndOwnership() {
	svc := suite.commentService()
	task := suite.createTask("공유", suite.emp1, suite.t1)

	_, err := svc.Create(suite.emp3, task.ID, "남의 작업")
	suite.ErrorIs(err, ErrTaskNotFound)

	comment, err := svc.Create(suite.emp1, task.ID, "초안")
	suite.Require().NoError(err)

	_, err = svc.Get(suite.outsider, comment.ID)
	suite.ErrorIs(err, ErrCommentNotFound)

	_, err = svc.Update(suite.manager, comment.ID, "수정")
	suite.ErrorIs(err, ErrPermissionDenied)

	updated, err := svc.Update(suite.emp1, comment.ID, "수정본")
	suite.Require().NoError(err)
	suite.Equal("수정본", updated.Content)

	comments, total, err := svc.List(suite.manager, &task.ID, utils.PaginationParams{})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Len(comments, 1)

	suite.Require().NoError(svc.Delete(suite.admin, comment.ID))
	_, err = svc.Get(suite.emp1, comment.ID)
	suite.ErrorIs(err, ErrCommentNotFound)
}
