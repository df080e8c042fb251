package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockNotificationRepository(t *testing.T) (NotificationRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewNotificationRepository(db), mock
}

func TestNotificationRepository_DeleteReadBefore(t *testing.T) {
	repo, mock := newMockNotificationRepository(t)
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `notifications` WHERE is_read = ? AND created_at < ?")).
		WithArgs(true, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	deleted, err := repo.DeleteReadBefore(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_DeleteExpired(t *testing.T) {
	repo, mock := newMockNotificationRepository(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `notifications` WHERE expires_at IS NOT NULL AND expires_at < ?")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	deleted, err := repo.DeleteExpired(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_DeleteRollsBackOnError(t *testing.T) {
	repo, mock := newMockNotificationRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `notifications`").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.DeleteExpired(time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
