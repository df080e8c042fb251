package services

import (
	"fmt"
	"time"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/reporting"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

// DashboardService computes the task dashboard widgets. Every widget is
// restricted to the caller's visibility scope.
type DashboardService struct {
	repos  *repository.Repositories
	scopes *ScopeResolver
	now    Clock
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repos *repository.Repositories, scopes *ScopeResolver) *DashboardService {
	return &DashboardService{repos: repos, scopes: scopes, now: systemClock}
}

var openStatuses = []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusReview}

var pendingStatuses = []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress}

func (s *DashboardService) scopedTasks(actor *models.User, filter repository.TaskFilter) ([]models.Task, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	filter.Scope = scope
	tasks, _, err := s.repos.Tasks.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// WorkloadEntry counts the tasks a user has running on a day.
type WorkloadEntry struct {
	UserID     uint64 `json:"user_id"`
	UserName   string `json:"user_name"`
	TasksCount int    `json:"tasks_count"`
}

// Workload counts, per visible user, the tasks whose span covers date.
func (s *DashboardService) Workload(actor *models.User, date time.Time, departmentID *uint64) ([]WorkloadEntry, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	filter := repository.UserFilter{Scope: scope}
	if departmentID != nil {
		filter.DepartmentIDs = []uint64{*departmentID}
	}
	users, _, err := s.repos.Users.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	entries := make([]WorkloadEntry, 0, len(users))
	if len(users) == 0 {
		return entries, nil
	}

	ids := make([]uint64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	from, to := utils.StartOfDay(date), utils.EndOfDay(date)
	tasks, _, err := s.repos.Tasks.List(repository.TaskFilter{
		Scope:       policy.Scope{All: true},
		AssigneeIDs: ids,
		ActiveFrom:  &from,
		ActiveTo:    &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	counts := make(map[uint64]int, len(users))
	for _, t := range tasks {
		counts[t.AssigneeID]++
	}

	for _, u := range users {
		entries = append(entries, WorkloadEntry{
			UserID:     u.ID,
			UserName:   u.FirstName + " " + u.LastName,
			TasksCount: counts[u.ID],
		})
	}
	return entries, nil
}

// TodayTasks lists unfinished tasks whose span covers today.
func (s *DashboardService) TodayTasks(actor *models.User) ([]models.Task, error) {
	now := s.now()
	from, to := utils.StartOfDay(now), utils.EndOfDay(now)
	return s.scopedTasks(actor, repository.TaskFilter{
		ActiveFrom: &from,
		ActiveTo:   &to,
		Statuses:   openStatuses,
		Preload:    taskListPreload,
	})
}

// DelayedTasks lists unfinished tasks due before today.
func (s *DashboardService) DelayedTasks(actor *models.User) ([]models.Task, error) {
	before := utils.StartOfDay(s.now()).Add(-time.Nanosecond)
	return s.scopedTasks(actor, repository.TaskFilter{
		DueTo:    &before,
		Statuses: openStatuses,
		Ordering: "due_date",
		Preload:  taskListPreload,
	})
}

// DailyWorkload summarizes one day of the workload chart.
type DailyWorkload struct {
	Date       string `json:"date"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	InProgress int    `json:"inProgress"`
	Delayed    int    `json:"delayed"`
}

// WorkloadStats covers the seven days before today: tasks starting each day,
// tasks completed each day, tasks started and in progress and unfinished tasks
// due that day.
func (s *DashboardService) WorkloadStats(actor *models.User) ([]DailyWorkload, error) {
	tasks, err := s.scopedTasks(actor, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}

	first := utils.StartOfDay(s.now()).AddDate(0, 0, -constants.WorkloadStatsDays)
	stats := make([]DailyWorkload, constants.WorkloadStatsDays)
	for i := range stats {
		day := first.AddDate(0, 0, i)
		stat := DailyWorkload{Date: day.Format(constants.DateLayout)}
		for _, t := range tasks {
			startsToday := utils.SameDay(t.StartDate, day)
			if startsToday {
				stat.Total++
				if t.Status == models.TaskStatusInProgress {
					stat.InProgress++
				}
			}
			if t.Status == models.TaskStatusDone && t.CompletedAt != nil && utils.SameDay(*t.CompletedAt, day) {
				stat.Completed++
			}
			if utils.SameDay(t.DueDate, day) && (t.Status == models.TaskStatusTodo || t.Status == models.TaskStatusInProgress) {
				stat.Delayed++
			}
		}
		stats[i] = stat
	}
	return stats, nil
}

// PriorityStat is the share of one priority among visible tasks.
type PriorityStat struct {
	Priority   models.TaskPriority `json:"priority"`
	Count      int                 `json:"count"`
	Percentage float64             `json:"percentage"`
}

// PriorityStats reports every priority from LOW to URGENT, including empty ones.
func (s *DashboardService) PriorityStats(actor *models.User) ([]PriorityStat, error) {
	tasks, err := s.scopedTasks(actor, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[models.TaskPriority]int, len(models.TaskPriorityOrder))
	for _, t := range tasks {
		counts[t.Priority]++
	}

	stats := make([]PriorityStat, 0, len(models.TaskPriorityOrder))
	for _, p := range models.TaskPriorityOrder {
		stats = append(stats, PriorityStat{
			Priority:   p,
			Count:      counts[p],
			Percentage: reporting.Percentage(counts[p], len(tasks)),
		})
	}
	return stats, nil
}

// UpcomingDeadlines lists the next pending tasks due within a week.
func (s *DashboardService) UpcomingDeadlines(actor *models.User) ([]models.Task, error) {
	now := s.now()
	from := utils.StartOfDay(now)
	to := utils.EndOfDay(now.AddDate(0, 0, constants.UpcomingDeadlineDays))
	return s.scopedTasks(actor, repository.TaskFilter{
		DueFrom:  &from,
		DueTo:    &to,
		Statuses: pendingStatuses,
		Ordering: "due_date",
		Limit:    constants.UpcomingDeadlineLimit,
		Preload:  taskListPreload,
	})
}

// MemberPerformance is one row of the team performance widget.
type MemberPerformance struct {
	UserID         uint64  `json:"user_id"`
	Name           string  `json:"name"`
	CompletionRate float64 `json:"completion_rate"`
	TaskCount      int     `json:"task_count"`
	AverageScore   float64 `json:"average_score"`
}

// TeamPerformance rates the active members below general manager rank. Staff
// without a wider scope see their own department.
func (s *DashboardService) TeamPerformance(actor *models.User) ([]MemberPerformance, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	if scope.SelfOnly() && actor.DepartmentID != nil {
		scope = policy.Scope{DepartmentIDs: []uint64{*actor.DepartmentID}}
	}

	active := true
	members, _, err := s.repos.Users.List(repository.UserFilter{
		Scope:        scope,
		IsActive:     &active,
		ExcludeRanks: []models.Rank{models.RankDirector, models.RankGeneralManager},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	rows := make([]MemberPerformance, 0, len(members))
	if len(members) == 0 {
		return rows, nil
	}

	ids := make([]uint64, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	tasks, _, err := s.repos.Tasks.List(repository.TaskFilter{Scope: policy.Scope{All: true}, AssigneeIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to list member tasks: %w", err)
	}
	byAssignee := make(map[uint64][]models.Task, len(members))
	assigneeOf := make(map[uint64]uint64, len(tasks))
	var doneIDs []uint64
	for _, t := range tasks {
		byAssignee[t.AssigneeID] = append(byAssignee[t.AssigneeID], t)
		if t.Status == models.TaskStatusDone {
			doneIDs = append(doneIDs, t.ID)
			assigneeOf[t.ID] = t.AssigneeID
		}
	}

	evaluations, err := s.repos.Evaluations.ListForTasks(doneIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	evalsByAssignee := make(map[uint64][]models.TaskEvaluation)
	for _, e := range evaluations {
		owner := assigneeOf[e.TaskID]
		evalsByAssignee[owner] = append(evalsByAssignee[owner], e)
	}

	for _, m := range members {
		own := byAssignee[m.ID]
		rows = append(rows, MemberPerformance{
			UserID:         m.ID,
			Name:           m.FullName(),
			CompletionRate: reporting.Percentage(reporting.CountStatus(own, models.TaskStatusDone), len(own)),
			TaskCount:      len(own),
			AverageScore:   reporting.Round1(reporting.AverageScore(evalsByAssignee[m.ID])),
		})
	}
	return rows, nil
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	ID          uint64    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	TaskID      uint64    `json:"task_id"`
	TaskTitle   string    `json:"task_title"`
}

// ActivityStatusChanged is the only activity type written today.
const ActivityStatusChanged = "STATUS_CHANGED"

// RecentActivity lists the latest status changes visible to actor or made by them.
func (s *DashboardService) RecentActivity(actor *models.User) ([]Activity, error) {
	scope, err := s.scopes.Scope(actor)
	if err != nil {
		return nil, err
	}
	histories, err := s.repos.Histories.Recent(scope, actor.ID, constants.RecentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}

	activities := make([]Activity, 0, len(histories))
	for _, h := range histories {
		activities = append(activities, Activity{
			ID:   h.ID,
			Type: ActivityStatusChanged,
			Description: fmt.Sprintf("작업 상태가 %s에서 %s로 변경되었습니다.",
				h.PreviousStatus.Label(), h.NewStatus.Label()),
			CreatedAt: h.CreatedAt,
			TaskID:    h.TaskID,
			TaskTitle: h.Task.Title,
		})
	}
	return activities, nil
}

// StatCounter is a count and its change against a week ago.
type StatCounter struct {
	Count int     `json:"count"`
	Trend float64 `json:"trend"`
}

// TaskStats is the headline counters widget.
type TaskStats struct {
	Total      StatCounter `json:"total"`
	InProgress StatCounter `json:"in_progress"`
	Completed  StatCounter `json:"completed"`
	Delayed    StatCounter `json:"delayed"`
}

// Stats compares the current counters with the tasks that already existed a
// week ago.
func (s *DashboardService) Stats(actor *models.User) (*TaskStats, error) {
	tasks, err := s.scopedTasks(actor, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}

	today := utils.StartOfDay(s.now())
	lastWeek := today.AddDate(0, 0, -7)
	baselineEnd := utils.EndOfDay(lastWeek)

	var cur, prev struct{ total, inProgress, completed, delayed int }
	for _, t := range tasks {
		pending := t.Status == models.TaskStatusTodo || t.Status == models.TaskStatusInProgress

		cur.total++
		if t.Status == models.TaskStatusInProgress {
			cur.inProgress++
		}
		if t.Status == models.TaskStatusDone {
			cur.completed++
		}
		if pending && t.DueDate.Before(today) {
			cur.delayed++
		}

		if t.CreatedAt.After(baselineEnd) {
			continue
		}
		prev.total++
		if t.Status == models.TaskStatusInProgress {
			prev.inProgress++
		}
		if t.Status == models.TaskStatusDone {
			prev.completed++
		}
		if pending && t.DueDate.Before(lastWeek) {
			prev.delayed++
		}
	}

	return &TaskStats{
		Total:      StatCounter{Count: cur.total, Trend: reporting.Trend(cur.total, prev.total)},
		InProgress: StatCounter{Count: cur.inProgress, Trend: reporting.Trend(cur.inProgress, prev.inProgress)},
		Completed:  StatCounter{Count: cur.completed, Trend: reporting.Trend(cur.completed, prev.completed)},
		Delayed:    StatCounter{Count: cur.delayed, Trend: reporting.Trend(cur.delayed, prev.delayed)},
	}, nil
}
