package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyActor  = "actor"

	SessionCookieName    = "workforce_session"
	SessionKeyRefreshJTI = "refresh_jti"
	SessionKeyRefreshTok = "refresh_token"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Validation
const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 150
	MinScore          = 1
	MaxScore          = 5
)

// Notification scheduling
const (
	DueSoonWindowDays       = 3
	NotificationDedupWindow = 24 * time.Hour
	ReadNotificationMaxAge  = 30 * 24 * time.Hour
	UpcomingDeadlineDays    = 7
	UpcomingDeadlineLimit   = 5
	RecentActivityLimit     = 10
	WorkloadStatsDays       = 7
)

// DateLayout is the calendar date format accepted in query parameters.
const DateLayout = "2006-01-02"
