// Package reporting holds the arithmetic behind reports and dashboards.
// Every function works on rows that were already loaded and scoped, and
// every ratio is 0 when its denominator is 0.
package reporting

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yukikurage/workforce-api/internal/models"
)

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Percentage returns part/total*100 rounded to one decimal.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(part) / float64(total) * 100)
}

// DistributionItem is one row of a count distribution.
type DistributionItem struct {
	Field      string  `json:"field"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

var (
	priorityOrder   = []string{"URGENT", "HIGH", "MEDIUM", "LOW"}
	difficultyOrder = []string{"VERY_HARD", "HARD", "MEDIUM", "EASY"}
	statusOrder     = []string{"TODO", "IN_PROGRESS", "REVIEW", "DONE", "HOLD"}
)

// PriorityDistribution counts tasks per priority, most urgent first.
func PriorityDistribution(tasks []models.Task) []DistributionItem {
	values := make([]string, len(tasks))
	for i, t := range tasks {
		values[i] = string(t.Priority)
	}
	return distribution(values, priorityOrder)
}

// DifficultyDistribution counts tasks per difficulty, hardest first.
func DifficultyDistribution(tasks []models.Task) []DistributionItem {
	values := make([]string, len(tasks))
	for i, t := range tasks {
		values[i] = string(t.Difficulty)
	}
	return distribution(values, difficultyOrder)
}

// StatusDistribution counts tasks per status in workflow order.
func StatusDistribution(tasks []models.Task) []DistributionItem {
	values := make([]string, len(tasks))
	for i, t := range tasks {
		values[i] = string(t.Status)
	}
	return distribution(values, statusOrder)
}

// distribution only lists values that occur. Unknown values sort last.
func distribution(values []string, order []string) []DistributionItem {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}

	rank := func(v string) int {
		for i, o := range order {
			if o == v {
				return i
			}
		}
		return len(order)
	}

	items := make([]DistributionItem, 0, len(counts))
	for field, count := range counts {
		items = append(items, DistributionItem{
			Field:      field,
			Count:      count,
			Percentage: Percentage(count, len(values)),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := rank(items[i].Field), rank(items[j].Field)
		if ri != rj {
			return ri < rj
		}
		return items[i].Field < items[j].Field
	})
	return items
}

// CountStatus counts tasks in the given status.
func CountStatus(tasks []models.Task, status models.TaskStatus) int {
	n := 0
	for _, t := range tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// CountDelayed counts tasks that are delayed at now.
func CountDelayed(tasks []models.Task, now time.Time) int {
	n := 0
	for _, t := range tasks {
		if t.IsDelayed(now) {
			n++
		}
	}
	return n
}

// DelayRate is the share of delayed tasks in percent.
func DelayRate(tasks []models.Task, now time.Time) float64 {
	return Percentage(CountDelayed(tasks, now), len(tasks))
}

// CompletedTasks keeps DONE tasks that recorded a completion time.
func CompletedTasks(tasks []models.Task) []models.Task {
	var done []models.Task
	for _, t := range tasks {
		if t.Status == models.TaskStatusDone && t.CompletedAt != nil {
			done = append(done, t)
		}
	}
	return done
}

// AverageCompletion is the mean of completed_at - start_date over completed
// tasks. ok is false when no task qualifies.
func AverageCompletion(tasks []models.Task) (avg time.Duration, ok bool) {
	done := CompletedTasks(tasks)
	if len(done) == 0 {
		return 0, false
	}
	var total time.Duration
	for _, t := range done {
		total += t.CompletedAt.Sub(t.StartDate)
	}
	return total / time.Duration(len(done)), true
}

// MonthlyBucket summarizes the tasks that started in one calendar month.
type MonthlyBucket struct {
	Month     string `json:"month"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Delayed   int    `json:"delayed"`
}

// MonthlyBuckets groups tasks by the year-month of their start date.
func MonthlyBuckets(tasks []models.Task, now time.Time) []MonthlyBucket {
	byMonth := make(map[string]*MonthlyBucket)
	for _, t := range tasks {
		key := t.StartDate.Format("2006-01")
		b, ok := byMonth[key]
		if !ok {
			b = &MonthlyBucket{Month: key}
			byMonth[key] = b
		}
		b.Total++
		if t.Status == models.TaskStatusDone {
			b.Completed++
		}
		if t.IsDelayed(now) {
			b.Delayed++
		}
	}

	buckets := make([]MonthlyBucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month < buckets[j].Month })
	return buckets
}

// TimeEfficiency is the sum of actual hours over the sum of estimated hours
// in percent, counting only tasks with an estimate.
func TimeEfficiency(tasks []models.Task) float64 {
	var estimated, actual float64
	for _, t := range tasks {
		if t.EstimatedHours <= 0 {
			continue
		}
		estimated += t.EstimatedHours
		if t.ActualHours != nil {
			actual += *t.ActualHours
		}
	}
	if estimated == 0 {
		return 0
	}
	return Round1(actual / estimated * 100)
}

// RejectionRate is the share of evaluated tasks that received a score below 3.
func RejectionRate(evaluations []models.TaskEvaluation) float64 {
	evaluated := make(map[uint64]bool)
	for _, e := range evaluations {
		rejected := e.PerformanceScore < 3
		evaluated[e.TaskID] = evaluated[e.TaskID] || rejected
	}
	rejected := 0
	for _, r := range evaluated {
		if r {
			rejected++
		}
	}
	return Percentage(rejected, len(evaluated))
}

// ReworkRate is the share of DONE tasks that were moved back out of DONE at
// some point.
func ReworkRate(tasks []models.Task, reworkedTaskIDs []uint64) float64 {
	reworked := make(map[uint64]struct{}, len(reworkedTaskIDs))
	for _, id := range reworkedTaskIDs {
		reworked[id] = struct{}{}
	}
	completed, rework := 0, 0
	for _, t := range tasks {
		if t.Status != models.TaskStatusDone {
			continue
		}
		completed++
		if _, ok := reworked[t.ID]; ok {
			rework++
		}
	}
	return Percentage(rework, completed)
}

// DailyHours is the logged work of one day.
type DailyHours struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// DailyWorkHours sums closed time logs per start day, oldest first.
func DailyWorkHours(logs []models.TaskTimeLog) []DailyHours {
	byDay := make(map[string]time.Duration)
	for _, l := range logs {
		if l.EndTime == nil {
			continue
		}
		byDay[l.StartTime.Format("2006-01-02")] += l.Duration()
	}

	days := make([]DailyHours, 0, len(byDay))
	for day, d := range byDay {
		days = append(days, DailyHours{Date: day, Hours: Round1(d.Hours())})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// Trend is the change from previous to current in percent.
func Trend(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return Round1(float64(current-previous) / float64(previous) * 100)
}

// FormatDuration prints a duration as "Xh Ym".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// RelativeEfficiency compares average completion times: above 100 means the
// individual finishes faster than the comparison group.
func RelativeEfficiency(comparisonAvg, myAvg time.Duration) float64 {
	if comparisonAvg == 0 || myAvg == 0 {
		return 0
	}
	return Round1(float64(comparisonAvg) / float64(myAvg) * 100)
}

// AverageScore is the mean performance score rounded to one decimal.
func AverageScore(evaluations []models.TaskEvaluation) float64 {
	if len(evaluations) == 0 {
		return 0
	}
	total := 0
	for _, e := range evaluations {
		total += e.PerformanceScore
	}
	return Round1(float64(total) / float64(len(evaluations)))
}

// ScoreBucket counts evaluations with one score.
type ScoreBucket struct {
	Score int `json:"score"`
	Count int `json:"count"`
}

// ScoreDistribution counts evaluations for every score from minScore to maxScore.
func ScoreDistribution(evaluations []models.TaskEvaluation, minScore, maxScore int) []ScoreBucket {
	buckets := make([]ScoreBucket, 0, maxScore-minScore+1)
	for s := minScore; s <= maxScore; s++ {
		buckets = append(buckets, ScoreBucket{Score: s})
	}
	for _, e := range evaluations {
		if e.PerformanceScore < minScore || e.PerformanceScore > maxScore {
			continue
		}
		buckets[e.PerformanceScore-minScore].Count++
	}
	return buckets
}

// MonthlyScore is the average evaluation score of one month.
type MonthlyScore struct {
	Month        string  `json:"month"`
	AverageScore float64 `json:"average_score"`
	Count        int     `json:"count"`
}

// MonthlyScores groups evaluations by the month they were written.
func MonthlyScores(evaluations []models.TaskEvaluation) []MonthlyScore {
	byMonth := make(map[string][]models.TaskEvaluation)
	for _, e := range evaluations {
		key := e.CreatedAt.Format("2006-01")
		byMonth[key] = append(byMonth[key], e)
	}

	months := make([]MonthlyScore, 0, len(byMonth))
	for month, evals := range byMonth {
		months = append(months, MonthlyScore{
			Month:        month,
			AverageScore: AverageScore(evals),
			Count:        len(evals),
		})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months
}

// RankByScore returns the 1-based position of userID when members are sorted
// by score, highest first. Ties keep the lower user ID ahead. A user missing
// from scores ranks last.
func RankByScore(scores map[uint64]float64, userID uint64) int {
	ids := make([]uint64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	for i, id := range ids {
		if id == userID {
			return i + 1
		}
	}
	return len(ids)
}
