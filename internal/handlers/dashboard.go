package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/services"
)

// DashboardHandler serves the task dashboard widgets.
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Workload counts running tasks per visible user on ?date (default today).
func (h *DashboardHandler) Workload(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	date, ok := queryDate(c, "date", false)
	if !ok {
		return
	}
	departmentID, ok := queryUint64(c, "department")
	if !ok {
		return
	}

	day := time.Now()
	if date != nil {
		day = *date
	}

	entries, err := h.dashboardService.Workload(actor, day, departmentID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// TodayTasks lists unfinished tasks running today.
func (h *DashboardHandler) TodayTasks(c *gin.Context) {
	h.taskList(c, h.dashboardService.TodayTasks)
}

// DelayedTasks lists overdue tasks.
func (h *DashboardHandler) DelayedTasks(c *gin.Context) {
	h.taskList(c, h.dashboardService.DelayedTasks)
}

// UpcomingDeadlines lists the next deadlines.
func (h *DashboardHandler) UpcomingDeadlines(c *gin.Context) {
	h.taskList(c, h.dashboardService.UpcomingDeadlines)
}

func (h *DashboardHandler) taskList(c *gin.Context, load func(*models.User) ([]models.Task, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	tasks, err := load(actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskDTOs(tasks))
}

// WorkloadStats returns daily totals for the last week.
func (h *DashboardHandler) WorkloadStats(c *gin.Context) {
	respondDashboard(c, h.dashboardService.WorkloadStats)
}

// PriorityStats returns the share of open tasks per priority.
func (h *DashboardHandler) PriorityStats(c *gin.Context) {
	respondDashboard(c, h.dashboardService.PriorityStats)
}

// TeamPerformance returns completion and score per team member.
func (h *DashboardHandler) TeamPerformance(c *gin.Context) {
	respondDashboard(c, h.dashboardService.TeamPerformance)
}

// RecentActivity returns the latest status changes.
func (h *DashboardHandler) RecentActivity(c *gin.Context) {
	respondDashboard(c, h.dashboardService.RecentActivity)
}

// Stats returns headline counters with their weekly trend.
func (h *DashboardHandler) Stats(c *gin.Context) {
	respondDashboard(c, h.dashboardService.Stats)
}

func respondDashboard[T any](c *gin.Context, load func(*models.User) (T, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	result, err := load(actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

