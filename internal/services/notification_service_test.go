package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/models"
)

func (suite *ServiceTestSuite) notificationService() *NotificationService {
	return NewNotificationService(suite.repos.Notifications, constants.ReadNotificationMaxAge, zap.NewNop())
}

func (suite *ServiceTestSuite) createNotification(recipient *models.User, read bool, createdAt time.Time, expiresAt *time.Time) *models.Notification {
	n := &models.Notification{
		RecipientID:      recipient.ID,
		NotificationType: models.NotificationTaskComment,
		Message:          "알림",
		IsRead:           read,
		Priority:         models.NotificationPriorityMedium,
		ExpiresAt:        expiresAt,
		CreatedAt:        createdAt,
	}
	suite.Require().NoError(suite.db.Create(n).Error)
	return n
}

func (suite *ServiceTestSuite) TestNotificationInbox() {
	svc := suite.notificationService()
	mine := suite.createNotification(suite.emp1, false, suite.now, nil)
	suite.createNotification(suite.emp1, false, suite.now.Add(time.Minute), nil)
	theirs := suite.createNotification(suite.emp2, false, suite.now, nil)

	_, err := svc.Get(suite.emp1, theirs.ID)
	suite.ErrorIs(err, ErrNotificationNotFound)
	suite.ErrorIs(svc.Delete(suite.emp1, theirs.ID), ErrNotificationNotFound)

	count, err := svc.UnreadCount(suite.emp1)
	suite.Require().NoError(err)
	suite.EqualValues(2, count)

	read, err := svc.SetRead(suite.emp1, mine.ID, true)
	suite.Require().NoError(err)
	suite.True(read.IsRead)

	unread := false
	list, total, err := svc.List(suite.emp1, ListNotificationsInput{IsRead: &unread})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Len(list, 1)

	marked, err := svc.MarkAllRead(suite.emp1)
	suite.Require().NoError(err)
	suite.EqualValues(1, marked)

	count, err = svc.UnreadCount(suite.emp2)
	suite.Require().NoError(err)
	suite.EqualValues(1, count)
}

func (suite *ServiceTestSuite) TestNotificationCleanup() {
	svc := suite.notificationService()
	past := suite.now.Add(-time.Hour)
	future := suite.now.Add(time.Hour)

	suite.createNotification(suite.emp1, true, suite.now.Add(-31*24*time.Hour), nil)
	suite.createNotification(suite.emp1, false, suite.now.Add(-31*24*time.Hour), nil)
	suite.createNotification(suite.emp1, true, suite.now.Add(-24*time.Hour), nil)
	suite.createNotification(suite.emp1, false, suite.now.Add(-2*time.Hour), &past)
	suite.createNotification(suite.emp1, false, suite.now, &future)

	result, err := svc.Cleanup(suite.now)
	suite.Require().NoError(err)
	suite.Equal(CleanupResult{Read: 1, Expired: 1}, result)
	suite.Len(suite.notifications(suite.emp1), 3)
}
