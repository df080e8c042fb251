package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/policy"
	"github.com/yukikurage/workforce-api/internal/reporting"
	"github.com/yukikurage/workforce-api/internal/repository"
	"github.com/yukikurage/workforce-api/internal/utils"
)

var ErrReportRangeRequired = errors.New("start_date and end_date are required")

// recentFeedbackLimit caps the feedback entries of a performance report.
const recentFeedbackLimit = 5

// ReportService aggregates personal, department and performance reports.
type ReportService struct {
	repos *repository.Repositories
	now   Clock
}

// NewReportService creates a new ReportService.
func NewReportService(repos *repository.Repositories) *ReportService {
	return &ReportService{repos: repos, now: systemClock}
}

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether both bounds are set and ordered.
func (p Period) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && !p.End.Before(p.Start)
}

func (p Period) bounds() (time.Time, time.Time) {
	return utils.StartOfDay(p.Start), utils.EndOfDay(p.End)
}

// PeriodDTO is the period echoed back in reports.
type PeriodDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (p Period) dto() PeriodDTO {
	return PeriodDTO{StartDate: p.Start.Format(constants.DateLayout), EndDate: p.End.Format(constants.DateLayout)}
}

// subject resolves whose report is requested and checks actor may read it.
func (s *ReportService) subject(actor *models.User, subjectID *uint64) (*models.User, error) {
	if subjectID == nil || *subjectID == actor.ID {
		return actor, nil
	}
	user, err := s.repos.Users.FindByID(*subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !policy.CanViewReport(actor, user) {
		return nil, ErrPermissionDenied
	}
	return user, nil
}

// tasksCreatedIn lists the tasks of the assignees created inside the period.
func (s *ReportService) tasksCreatedIn(assigneeIDs []uint64, period Period) ([]models.Task, error) {
	if len(assigneeIDs) == 0 {
		return []models.Task{}, nil
	}
	from, to := period.bounds()
	tasks, _, err := s.repos.Tasks.List(repository.TaskFilter{
		Scope:       policy.Scope{All: true},
		AssigneeIDs: assigneeIDs,
		CreatedFrom: &from,
		CreatedTo:   &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *ReportService) doneEvaluations(tasks []models.Task) ([]models.TaskEvaluation, error) {
	var ids []uint64
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone {
			ids = append(ids, t.ID)
		}
	}
	evaluations, err := s.repos.Evaluations.ListForTasks(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evaluations, nil
}

func (s *ReportService) memberIDs(departmentIDs []uint64) ([]uint64, error) {
	if len(departmentIDs) == 0 {
		return []uint64{}, nil
	}
	users, _, err := s.repos.Users.List(repository.UserFilter{
		Scope:         policy.Scope{All: true},
		DepartmentIDs: departmentIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	ids := make([]uint64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

func formatAverage(tasks []models.Task) *string {
	avg, ok := reporting.AverageCompletion(tasks)
	if !ok {
		return nil
	}
	text := reporting.FormatDuration(avg)
	return &text
}

// BasicStats are the headline task counts.
type BasicStats struct {
	TotalTasks      int `json:"total_tasks"`
	CompletedTasks  int `json:"completed_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	DelayedTasks    int `json:"delayed_tasks"`
}

func basicStats(tasks []models.Task, now time.Time) BasicStats {
	return BasicStats{
		TotalTasks:      len(tasks),
		CompletedTasks:  reporting.CountStatus(tasks, models.TaskStatusDone),
		InProgressTasks: reporting.CountStatus(tasks, models.TaskStatusInProgress),
		DelayedTasks:    reporting.CountDelayed(tasks, now),
	}
}

type TimeStats struct {
	AverageCompletionTime *string                `json:"average_completion_time"`
	EstimatedVsActual     float64                `json:"estimated_vs_actual"`
	DailyWorkHours        []reporting.DailyHours `json:"daily_work_hours"`
}

type QualityStats struct {
	AverageScore        float64 `json:"average_score"`
	ReviewRejectionRate float64 `json:"review_rejection_rate"`
	ReworkRate          float64 `json:"rework_rate"`
}

type DistributionStats struct {
	PriorityDistribution   []reporting.DistributionItem `json:"priority_distribution"`
	DifficultyDistribution []reporting.DistributionItem `json:"difficulty_distribution"`
	StatusDistribution     []reporting.DistributionItem `json:"status_distribution"`
}

func distributionStats(tasks []models.Task) DistributionStats {
	return DistributionStats{
		PriorityDistribution:   reporting.PriorityDistribution(tasks),
		DifficultyDistribution: reporting.DifficultyDistribution(tasks),
		StatusDistribution:     reporting.StatusDistribution(tasks),
	}
}

type TeamComparison struct {
	TeamAvgCompletionTime string  `json:"team_avg_completion_time"`
	TeamAvgScore          float64 `json:"team_avg_score"`
	MyCompletionTime      string  `json:"my_completion_time"`
	MyScore               float64 `json:"my_score"`
	RelativeEfficiency    float64 `json:"relative_efficiency"`
}

type DepartmentComparison struct {
	DeptAvgCompletionTime string  `json:"dept_avg_completion_time"`
	DeptAvgScore          float64 `json:"dept_avg_score"`
	MyCompletionTime      string  `json:"my_completion_time"`
	MyScore               float64 `json:"my_score"`
	RelativeEfficiency    float64 `json:"relative_efficiency"`
}

// ComparisonStats is empty when the caller may not compare.
type ComparisonStats struct {
	TeamComparison       *TeamComparison       `json:"team_comparison,omitempty"`
	DepartmentComparison *DepartmentComparison `json:"department_comparison,omitempty"`
}

// PersonalReport describes one employee's tasks created in a period.
type PersonalReport struct {
	BasicStats        BasicStats        `json:"basic_stats"`
	TimeStats         TimeStats         `json:"time_stats"`
	QualityStats      QualityStats      `json:"quality_stats"`
	DistributionStats DistributionStats `json:"distribution_stats"`
	// ComparisonStats is null when the period has no tasks.
	ComparisonStats *ComparisonStats `json:"comparison_stats"`
}

func emptyPersonalReport() *PersonalReport {
	return &PersonalReport{
		TimeStats: TimeStats{DailyWorkHours: []reporting.DailyHours{}},
		DistributionStats: DistributionStats{
			PriorityDistribution:   []reporting.DistributionItem{},
			DifficultyDistribution: []reporting.DistributionItem{},
			StatusDistribution:     []reporting.DistributionItem{},
		},
	}
}

// PersonalReport reports on subjectID, or on actor when subjectID is nil.
func (s *ReportService) PersonalReport(actor *models.User, subjectID *uint64, period Period) (*PersonalReport, error) {
	if !period.Valid() {
		return nil, ErrReportRangeRequired
	}
	subject, err := s.subject(actor, subjectID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasksCreatedIn([]uint64{subject.ID}, period)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return emptyPersonalReport(), nil
	}

	now := s.now()
	ids := idsOf(tasks)

	logs, err := s.repos.TimeLogs.ListForTasks(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	allEvaluations, err := s.repos.Evaluations.ListForTasks(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	doneEvaluations, err := s.doneEvaluations(tasks)
	if err != nil {
		return nil, err
	}
	reworked, err := s.repos.Histories.ReworkedTaskIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list reworked tasks: %w", err)
	}

	report := &PersonalReport{
		BasicStats: basicStats(tasks, now),
		TimeStats: TimeStats{
			AverageCompletionTime: formatAverage(tasks),
			EstimatedVsActual:     reporting.TimeEfficiency(tasks),
			DailyWorkHours:        reporting.DailyWorkHours(logs),
		},
		QualityStats: QualityStats{
			AverageScore:        reporting.AverageScore(doneEvaluations),
			ReviewRejectionRate: reporting.RejectionRate(allEvaluations),
			ReworkRate:          reporting.ReworkRate(tasks, reworked),
		},
		DistributionStats: distributionStats(tasks),
		ComparisonStats:   &ComparisonStats{},
	}

	if policy.CanViewComparison(actor) {
		team, err := s.teamComparison(subject, tasks, period)
		if err != nil {
			return nil, err
		}
		dept, err := s.departmentComparison(subject, tasks, period)
		if err != nil {
			return nil, err
		}
		report.ComparisonStats = &ComparisonStats{TeamComparison: team, DepartmentComparison: dept}
	}

	return report, nil
}

type comparison struct {
	groupAvg   string
	groupScore float64
	myAvg      string
	myScore    float64
	efficiency float64
}

// compare measures the subject's completed tasks against a comparison group.
func (s *ReportService) compare(myTasks, groupTasks []models.Task) (comparison, error) {
	mine := reporting.CompletedTasks(myTasks)
	group := reporting.CompletedTasks(groupTasks)

	myEvaluations, err := s.repos.Evaluations.ListForTasks(idsOf(mine))
	if err != nil {
		return comparison{}, fmt.Errorf("failed to list evaluations: %w", err)
	}
	groupEvaluations, err := s.doneEvaluations(groupTasks)
	if err != nil {
		return comparison{}, err
	}

	myAvg, _ := reporting.AverageCompletion(mine)
	groupAvg, _ := reporting.AverageCompletion(group)

	return comparison{
		groupAvg:   reporting.FormatDuration(groupAvg),
		groupScore: reporting.AverageScore(groupEvaluations),
		myAvg:      reporting.FormatDuration(myAvg),
		myScore:    reporting.AverageScore(myEvaluations),
		efficiency: reporting.RelativeEfficiency(groupAvg, myAvg),
	}, nil
}

// teamComparison compares the subject with the rest of their department.
func (s *ReportService) teamComparison(subject *models.User, myTasks []models.Task, period Period) (*TeamComparison, error) {
	var teamIDs []uint64
	if subject.DepartmentID != nil {
		members, err := s.memberIDs([]uint64{*subject.DepartmentID})
		if err != nil {
			return nil, err
		}
		for _, id := range members {
			if id != subject.ID {
				teamIDs = append(teamIDs, id)
			}
		}
	}
	teamTasks, err := s.tasksCreatedIn(teamIDs, period)
	if err != nil {
		return nil, err
	}

	c, err := s.compare(myTasks, teamTasks)
	if err != nil {
		return nil, err
	}
	return &TeamComparison{
		TeamAvgCompletionTime: c.groupAvg,
		TeamAvgScore:          c.groupScore,
		MyCompletionTime:      c.myAvg,
		MyScore:               c.myScore,
		RelativeEfficiency:    c.efficiency,
	}, nil
}

// departmentComparison compares the subject with every team member of their
// headquarters.
func (s *ReportService) departmentComparison(subject *models.User, myTasks []models.Task, period Period) (*DepartmentComparison, error) {
	var memberIDs []uint64
	if subject.Department != nil {
		teams, err := s.repos.Departments.ChildIDs(subject.Department.HeadquartersID())
		if err != nil {
			return nil, fmt.Errorf("failed to load child departments: %w", err)
		}
		if memberIDs, err = s.memberIDs(teams); err != nil {
			return nil, err
		}
	}
	deptTasks, err := s.tasksCreatedIn(memberIDs, period)
	if err != nil {
		return nil, err
	}

	c, err := s.compare(myTasks, deptTasks)
	if err != nil {
		return nil, err
	}
	return &DepartmentComparison{
		DeptAvgCompletionTime: c.groupAvg,
		DeptAvgScore:          c.groupScore,
		MyCompletionTime:      c.myAvg,
		MyScore:               c.myScore,
		RelativeEfficiency:    c.efficiency,
	}, nil
}

// DepartmentSummary identifies the department of a report.
type DepartmentSummary struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type DepartmentBasicStats struct {
	BasicStats
	DelayRate float64 `json:"delay_rate"`
}

// MemberStats is one member row of a department report.
type MemberStats struct {
	UserID         uint64      `json:"user_id"`
	Name           string      `json:"name"`
	EmployeeID     string      `json:"employee_id"`
	Rank           models.Rank `json:"rank"`
	TotalTasks     int         `json:"total_tasks"`
	CompletedTasks int         `json:"completed_tasks"`
	DelayedTasks   int         `json:"delayed_tasks"`
	CompletionRate float64     `json:"completion_rate"`
	AverageScore   float64     `json:"average_score"`
}

// DepartmentReport aggregates the tasks of a department and its teams.
type DepartmentReport struct {
	Department            DepartmentSummary         `json:"department"`
	Period                PeriodDTO                 `json:"period"`
	BasicStats            DepartmentBasicStats      `json:"basic_stats"`
	AverageCompletionTime *string                   `json:"average_completion_time"`
	DistributionStats     DistributionStats         `json:"distribution_stats"`
	MonthlyStats          []reporting.MonthlyBucket `json:"monthly_stats"`
	Members               []MemberStats             `json:"members"`
}

// DepartmentReport reports on the tasks of a department, including its teams
// when it is a headquarters, that started inside the period.
func (s *ReportService) DepartmentReport(actor *models.User, departmentID uint64, period Period) (*DepartmentReport, error) {
	if !period.Valid() {
		return nil, ErrReportRangeRequired
	}
	department, err := s.repos.Departments.FindByID(departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to find department: %w", err)
	}
	if !policy.CanViewDepartmentReport(actor, department) {
		return nil, ErrPermissionDenied
	}

	departmentIDs := []uint64{department.ID}
	if department.IsHeadquarters() {
		teams, err := s.repos.Departments.ChildIDs(department.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load child departments: %w", err)
		}
		departmentIDs = append(departmentIDs, teams...)
	}

	from, to := period.bounds()
	tasks, _, err := s.repos.Tasks.List(repository.TaskFilter{
		Scope:         policy.Scope{All: true},
		DepartmentIDs: departmentIDs,
		StartFrom:     &from,
		StartTo:       &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list department tasks: %w", err)
	}

	active := true
	members, _, err := s.repos.Users.List(repository.UserFilter{
		Scope:         policy.Scope{All: true},
		DepartmentIDs: departmentIDs,
		IsActive:      &active,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	evaluations, err := s.doneEvaluations(tasks)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &DepartmentReport{
		Department: DepartmentSummary{ID: department.ID, Name: department.Name, Code: department.Code},
		Period:     period.dto(),
		BasicStats: DepartmentBasicStats{
			BasicStats: basicStats(tasks, now),
			DelayRate:  reporting.DelayRate(tasks, now),
		},
		AverageCompletionTime: formatAverage(tasks),
		DistributionStats:     distributionStats(tasks),
		MonthlyStats:          reporting.MonthlyBuckets(tasks, now),
		Members:               memberStats(members, tasks, evaluations, now),
	}, nil
}

func memberStats(members []models.User, tasks []models.Task, evaluations []models.TaskEvaluation, now time.Time) []MemberStats {
	byAssignee := make(map[uint64][]models.Task)
	assigneeOf := make(map[uint64]uint64, len(tasks))
	for _, t := range tasks {
		byAssignee[t.AssigneeID] = append(byAssignee[t.AssigneeID], t)
		assigneeOf[t.ID] = t.AssigneeID
	}
	evalsByAssignee := make(map[uint64][]models.TaskEvaluation)
	for _, e := range evaluations {
		owner := assigneeOf[e.TaskID]
		evalsByAssignee[owner] = append(evalsByAssignee[owner], e)
	}

	rows := make([]MemberStats, 0, len(members))
	for _, m := range members {
		own := byAssignee[m.ID]
		completed := reporting.CountStatus(own, models.TaskStatusDone)
		rows = append(rows, MemberStats{
			UserID:         m.ID,
			Name:           m.FullName(),
			EmployeeID:     m.EmployeeID,
			Rank:           m.Rank,
			TotalTasks:     len(own),
			CompletedTasks: completed,
			DelayedTasks:   reporting.CountDelayed(own, now),
			CompletionRate: reporting.Percentage(completed, len(own)),
			AverageScore:   reporting.AverageScore(evalsByAssignee[m.ID]),
		})
	}
	return rows
}

// EmployeeSummary identifies the subject of a performance report.
type EmployeeSummary struct {
	ID           uint64      `json:"id"`
	Name         string      `json:"name"`
	EmployeeID   string      `json:"employee_id"`
	Rank         models.Rank `json:"rank"`
	DepartmentID *uint64     `json:"department_id"`
	Department   string      `json:"department"`
}

// Feedback is one written evaluation comment.
type Feedback struct {
	TaskID      uint64    `json:"task_id"`
	TaskTitle   string    `json:"task_title"`
	Score       int       `json:"score"`
	Feedback    string    `json:"feedback"`
	EvaluatorID uint64    `json:"evaluator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// PerformanceReport rates one employee over the tasks created in a period.
type PerformanceReport struct {
	Employee          EmployeeSummary          `json:"employee"`
	Period            PeriodDTO                `json:"period"`
	AverageScore      float64                  `json:"average_score"`
	EvaluationCount   int                      `json:"evaluation_count"`
	ScoreDistribution []reporting.ScoreBucket  `json:"score_distribution"`
	MonthlyScores     []reporting.MonthlyScore `json:"monthly_scores"`
	TimeEfficiency    float64                  `json:"time_efficiency"`
	RejectionRate     float64                  `json:"rejection_rate"`
	ReworkRate        float64                  `json:"rework_rate"`
	RankInTeam        int                      `json:"rank_in_team"`
	TeamSize          int                      `json:"team_size"`
	RankInDepartment  int                      `json:"rank_in_department"`
	DepartmentSize    int                      `json:"department_size"`
	RecentFeedback    []Feedback               `json:"recent_feedback"`
}

// PerformanceEvaluation builds the performance report of subjectID, or of
// actor when subjectID is nil.
func (s *ReportService) PerformanceEvaluation(actor *models.User, subjectID *uint64, period Period) (*PerformanceReport, error) {
	if !period.Valid() {
		return nil, ErrReportRangeRequired
	}
	subject, err := s.subject(actor, subjectID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasksCreatedIn([]uint64{subject.ID}, period)
	if err != nil {
		return nil, err
	}
	ids := idsOf(tasks)
	evaluations, err := s.repos.Evaluations.ListForTasks(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	reworked, err := s.repos.Histories.ReworkedTaskIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list reworked tasks: %w", err)
	}

	report := &PerformanceReport{
		Employee:          employeeSummary(subject),
		Period:            period.dto(),
		AverageScore:      reporting.AverageScore(evaluations),
		EvaluationCount:   len(evaluations),
		ScoreDistribution: reporting.ScoreDistribution(evaluations, constants.MinScore, constants.MaxScore),
		MonthlyScores:     reporting.MonthlyScores(evaluations),
		TimeEfficiency:    reporting.TimeEfficiency(tasks),
		RejectionRate:     reporting.RejectionRate(evaluations),
		ReworkRate:        reporting.ReworkRate(tasks, reworked),
		RecentFeedback:    recentFeedback(tasks, evaluations),
	}

	if subject.Department != nil {
		team, err := s.memberIDs([]uint64{subject.Department.ID})
		if err != nil {
			return nil, err
		}
		if report.RankInTeam, report.TeamSize, err = s.rank(subject.ID, team); err != nil {
			return nil, err
		}

		hq := subject.Department.HeadquartersID()
		teams, err := s.repos.Departments.ChildIDs(hq)
		if err != nil {
			return nil, fmt.Errorf("failed to load child departments: %w", err)
		}
		dept, err := s.memberIDs(append([]uint64{hq}, teams...))
		if err != nil {
			return nil, err
		}
		if report.RankInDepartment, report.DepartmentSize, err = s.rank(subject.ID, dept); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// rank places userID among members by the average score of all their DONE
// tasks.
func (s *ReportService) rank(userID uint64, members []uint64) (int, int, error) {
	if len(members) == 0 {
		return 0, 0, nil
	}
	tasks, _, err := s.repos.Tasks.List(repository.TaskFilter{
		Scope:       policy.Scope{All: true},
		AssigneeIDs: members,
		Statuses:    []models.TaskStatus{models.TaskStatusDone},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list member tasks: %w", err)
	}
	evaluations, err := s.repos.Evaluations.ListForTasks(idsOf(tasks))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list evaluations: %w", err)
	}

	assigneeOf := make(map[uint64]uint64, len(tasks))
	for _, t := range tasks {
		assigneeOf[t.ID] = t.AssigneeID
	}
	byMember := make(map[uint64][]models.TaskEvaluation, len(members))
	for _, e := range evaluations {
		byMember[assigneeOf[e.TaskID]] = append(byMember[assigneeOf[e.TaskID]], e)
	}
	scores := make(map[uint64]float64, len(members))
	for _, id := range members {
		scores[id] = reporting.AverageScore(byMember[id])
	}
	return reporting.RankByScore(scores, userID), len(members), nil
}

func employeeSummary(u *models.User) EmployeeSummary {
	summary := EmployeeSummary{
		ID:           u.ID,
		Name:         u.FullName(),
		EmployeeID:   u.EmployeeID,
		Rank:         u.Rank,
		DepartmentID: u.DepartmentID,
	}
	if u.Department != nil {
		summary.Department = u.Department.Name
	}
	return summary
}

func recentFeedback(tasks []models.Task, evaluations []models.TaskEvaluation) []Feedback {
	titles := make(map[uint64]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}

	entries := make([]Feedback, 0, recentFeedbackLimit)
	for _, e := range evaluations {
		if e.Feedback == "" {
			continue
		}
		entries = append(entries, Feedback{
			TaskID:      e.TaskID,
			TaskTitle:   titles[e.TaskID],
			Score:       e.PerformanceScore,
			Feedback:    e.Feedback,
			EvaluatorID: e.EvaluatorID,
			CreatedAt:   e.CreatedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if len(entries) > recentFeedbackLimit {
		entries = entries[:recentFeedbackLimit]
	}
	return entries
}
