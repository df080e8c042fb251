package server

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/config"
	"github.com/yukikurage/workforce-api/internal/constants"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/handlers"
	"github.com/yukikurage/workforce-api/internal/metrics"
	"github.com/yukikurage/workforce-api/internal/middleware"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/storage"
	"github.com/yukikurage/workforce-api/internal/validation"
)

// Services bundles every service the HTTP layer and the CLI use.
type Services struct {
	Auth            *services.AuthService
	Users           *services.UserService
	Departments     *services.DepartmentService
	Tasks           *services.TaskService
	Dashboard       *services.DashboardService
	Comments        *services.CommentService
	Attachments     *services.AttachmentService
	History         *services.HistoryService
	TimeLogs        *services.TimeLogService
	Evaluations     *services.EvaluationService
	Notifications   *services.NotificationService
	Reports         *services.ReportService
	ReportTemplates *services.ReportTemplateService
}

// NewServices wires the services on top of db.
func NewServices(cfg *config.Config, db *gorm.DB, files storage.FileStorage, log *zap.Logger) *Services {
	repos := repository.New(db)
	scopes := services.NewScopeResolver(repos.Departments)
	tokens := services.NewTokenService(cfg.JWT)
	retention := time.Duration(cfg.Notifications.ReadRetentionDays) * 24 * time.Hour

	return &Services{
		Auth:            services.NewAuthService(repos.Users, tokens),
		Users:           services.NewUserService(repos, scopes),
		Departments:     services.NewDepartmentService(repos, files, log),
		Tasks:           services.NewTaskService(repos, scopes, files, log),
		Dashboard:       services.NewDashboardService(repos, scopes),
		Comments:        services.NewCommentService(repos, scopes, log),
		Attachments:     services.NewAttachmentService(repos, scopes, files, cfg.Storage.MaxUploadMB<<20, log),
		History:         services.NewHistoryService(repos, scopes),
		TimeLogs:        services.NewTimeLogService(repos, scopes),
		Evaluations:     services.NewEvaluationService(repos, scopes, log),
		Notifications:   services.NewNotificationService(repos.Notifications, retention, log),
		Reports:         services.NewReportService(repos),
		ReportTemplates: services.NewReportTemplateService(repos.ReportTemplates),
	}
}

// NewSessionStore builds the session store holding refresh tokens.
func NewSessionStore(cfg config.SessionConfig) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.Store {
	case config.SessionStoreRedis:
		rs, err := redisStore.NewStore(
			10,            // Redis pool size
			"tcp",         // network type
			cfg.RedisAddr, // Redis address from config
			"",            // username (empty for default user)
			"",            // password (empty = no password)
			[]byte(cfg.Secret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = rs
	default:
		store = cookie.NewStore([]byte(cfg.Secret))
	}

	store.Options(sessions.Options{
		Path:     "/api",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// New builds the HTTP engine with every route registered.
func New(cfg *config.Config, db *gorm.DB, svc *Services, store sessions.Store, log *zap.Logger) (*gin.Engine, error) {
	if err := validation.RegisterWithGin(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		metrics.Middleware(),
		middleware.CORS(cfg.Server.Origins()),
		sessions.Sessions(constants.SessionCookieName, store),
	)

	authHandler := handlers.NewAuthHandler(svc.Auth)
	userHandler := handlers.NewUserHandler(svc.Users)
	departmentHandler := handlers.NewDepartmentHandler(svc.Departments)
	taskHandler := handlers.NewTaskHandler(svc.Tasks)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	recordHandler := handlers.NewRecordHandler(svc.Comments, svc.Attachments, svc.History, svc.TimeLogs, svc.Evaluations)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	reportHandler := handlers.NewReportHandler(svc.Reports, svc.ReportTemplates)

	r.GET("/health", health(db))
	r.GET("/metrics", metrics.Handler())
	r.GET("/api/schema", schema(r))

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/token", authHandler.Login)
		api.POST("/token/refresh", authHandler.Refresh)
		api.POST("/auth/logout", authHandler.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(svc.Auth))
	byID := middleware.RequireIDParam()

	users := protected.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/me", userHandler.Me)
		users.GET("/:id", byID, userHandler.GetUser)
		users.PUT("/:id", byID, userHandler.UpdateUser)
		users.PATCH("/:id", byID, userHandler.UpdateUser)
		users.DELETE("/:id", byID, userHandler.DeleteUser)
		users.GET("/:id/current-tasks", byID, userHandler.CurrentTasks)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", departmentHandler.ListDepartments)
		departments.POST("", departmentHandler.CreateDepartment)
		departments.GET("/:id", byID, departmentHandler.GetDepartment)
		departments.PUT("/:id", byID, departmentHandler.UpdateDepartment)
		departments.PATCH("/:id", byID, departmentHandler.UpdateDepartment)
		departments.DELETE("/:id", byID, departmentHandler.DeleteDepartment)
		departments.GET("/:id/children", byID, departmentHandler.Children)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/calendar", taskHandler.Calendar)
		tasks.GET("/workload", dashboardHandler.Workload)
		tasks.GET("/today_tasks", dashboardHandler.TodayTasks)
		tasks.GET("/delayed_tasks", dashboardHandler.DelayedTasks)
		tasks.GET("/workload-stats", dashboardHandler.WorkloadStats)
		tasks.GET("/priority-stats", dashboardHandler.PriorityStats)
		tasks.GET("/upcoming-deadlines", dashboardHandler.UpcomingDeadlines)
		tasks.GET("/team-performance", dashboardHandler.TeamPerformance)
		tasks.GET("/recent", dashboardHandler.RecentActivity)
		tasks.GET("/stats", dashboardHandler.Stats)
		tasks.GET("/:id", byID, taskHandler.GetTask)
		tasks.PUT("/:id", byID, taskHandler.UpdateTask)
		tasks.PATCH("/:id", byID, taskHandler.UpdateTask)
		tasks.DELETE("/:id", byID, taskHandler.DeleteTask)
		tasks.POST("/:id/update_dates", byID, taskHandler.UpdateDates)
		tasks.PUT("/:id/dependencies", byID, taskHandler.SetDependencies)
	}

	comments := protected.Group("/task-comments")
	{
		comments.GET("", recordHandler.ListComments)
		comments.POST("", recordHandler.CreateComment)
		comments.GET("/:id", byID, recordHandler.GetComment)
		comments.PUT("/:id", byID, recordHandler.UpdateComment)
		comments.PATCH("/:id", byID, recordHandler.UpdateComment)
		comments.DELETE("/:id", byID, recordHandler.DeleteComment)
	}

	attachments := protected.Group("/task-attachments")
	{
		attachments.GET("", recordHandler.ListAttachments)
		attachments.POST("", recordHandler.UploadAttachment)
		attachments.GET("/:id", byID, recordHandler.GetAttachment)
		attachments.GET("/:id/download", byID, recordHandler.DownloadAttachment)
		attachments.DELETE("/:id", byID, recordHandler.DeleteAttachment)
	}

	history := protected.Group("/task-history")
	{
		history.GET("", recordHandler.ListHistory)
		history.GET("/:id", byID, recordHandler.GetHistory)
	}

	timeLogs := protected.Group("/task-time-logs")
	{
		timeLogs.GET("", recordHandler.ListTimeLogs)
		timeLogs.POST("", recordHandler.CreateTimeLog)
		timeLogs.GET("/:id", byID, recordHandler.GetTimeLog)
		timeLogs.PUT("/:id", byID, recordHandler.UpdateTimeLog)
		timeLogs.PATCH("/:id", byID, recordHandler.UpdateTimeLog)
		timeLogs.DELETE("/:id", byID, recordHandler.DeleteTimeLog)
	}

	evaluations := protected.Group("/task-evaluations")
	{
		evaluations.GET("", recordHandler.ListEvaluations)
		evaluations.POST("", recordHandler.CreateEvaluation)
		evaluations.GET("/:id", byID, recordHandler.GetEvaluation)
		evaluations.PUT("/:id", byID, recordHandler.UpdateEvaluation)
		evaluations.PATCH("/:id", byID, recordHandler.UpdateEvaluation)
		evaluations.DELETE("/:id", byID, recordHandler.DeleteEvaluation)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/mark_all_read", notificationHandler.MarkAllRead)
		notifications.GET("/:id", byID, notificationHandler.GetNotification)
		notifications.PATCH("/:id", byID, notificationHandler.UpdateNotification)
		notifications.POST("/:id/mark_read", byID, notificationHandler.MarkRead)
		notifications.DELETE("/:id", byID, notificationHandler.DeleteNotification)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/personal_report", reportHandler.PersonalReport)
		reports.GET("/department_report", reportHandler.DepartmentReport)
		reports.GET("/performance_evaluation", reportHandler.PerformanceEvaluation)
	}

	templates := protected.Group("/report-templates")
	{
		templates.GET("", reportHandler.ListTemplates)
		templates.POST("", reportHandler.CreateTemplate)
		templates.GET("/:id", byID, reportHandler.GetTemplate)
		templates.PUT("/:id", byID, reportHandler.UpdateTemplate)
		templates.PATCH("/:id", byID, reportHandler.UpdateTemplate)
		templates.DELETE("/:id", byID, reportHandler.DeleteTemplate)
	}

	return r, nil
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			_ = c.Error(err)
			apierrors.ServiceUnavailable(c, "")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Workforce API is running",
		})
	}
}

type route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// schema lists the registered routes.
func schema(r *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := r.Routes()
		routes := make([]route, 0, len(infos))
		for _, info := range infos {
			routes = append(routes, route{Method: info.Method, Path: info.Path})
		}
		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Path != routes[j].Path {
				return routes[i].Path < routes[j].Path
			}
			return routes[i].Method < routes[j].Method
		})

		c.JSON(http.StatusOK, gin.H{"routes": routes})
	}
}
