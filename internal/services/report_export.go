package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yukikurage/workforce-api/internal/reporting"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheetWriter appends rows to one worksheet.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	bold  int
	err   error
}

func newWorkbook(first string) (*excelize.File, *sheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to create style: %w", err)
	}
	w := &sheetWriter{f: f, sheet: first, row: 1, bold: bold}
	w.width("A", "A", 28)
	return f, w, nil
}

func (w *sheetWriter) next(sheet string) *sheetWriter {
	if w.err == nil {
		_, w.err = w.f.NewSheet(sheet)
	}
	nw := &sheetWriter{f: w.f, sheet: sheet, row: 1, bold: w.bold, err: w.err}
	nw.width("A", "A", 28)
	return nw
}

func (w *sheetWriter) width(from, to string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(w.sheet, from, to, width)
	}
}

func (w *sheetWriter) values(header bool, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &values); err != nil {
		w.err = err
		return
	}
	if header {
		last, err := excelize.CoordinatesToCellName(len(values), w.row)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetCellStyle(w.sheet, cell, last, w.bold)
	}
	w.row++
}

func (w *sheetWriter) title(text string) {
	if w.row > 1 {
		w.row++
	}
	w.values(true, text)
}

func (w *sheetWriter) header(values ...interface{}) { w.values(true, values...) }

func (w *sheetWriter) pair(label string, value interface{}) { w.values(false, label, value) }

func (w *sheetWriter) distribution(title string, items []reporting.DistributionItem) {
	w.title(title)
	w.header("항목", "건수", "비율(%)")
	for _, item := range items {
		w.values(false, item.Field, item.Count, item.Percentage)
	}
}

func optional(text *string) string {
	if text == nil {
		return "-"
	}
	return *text
}

func finish(f *excelize.File, err error) (*excelize.File, error) {
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}
	return f, nil
}

// Workbook renders the personal report as a spreadsheet.
func (r *PersonalReport) Workbook() (*excelize.File, error) {
	f, w, err := newWorkbook("개인 보고서")
	if err != nil {
		return nil, err
	}

	w.title("기본 통계")
	w.pair("전체 작업", r.BasicStats.TotalTasks)
	w.pair("완료 작업", r.BasicStats.CompletedTasks)
	w.pair("진행중 작업", r.BasicStats.InProgressTasks)
	w.pair("지연 작업", r.BasicStats.DelayedTasks)

	w.title("시간 관리")
	w.pair("평균 완료 시간", optional(r.TimeStats.AverageCompletionTime))
	w.pair("예상 대비 실제(%)", r.TimeStats.EstimatedVsActual)

	w.title("품질 지표")
	w.pair("평균 점수", r.QualityStats.AverageScore)
	w.pair("반려율(%)", r.QualityStats.ReviewRejectionRate)
	w.pair("재작업률(%)", r.QualityStats.ReworkRate)

	w.distribution("우선순위 분포", r.DistributionStats.PriorityDistribution)
	w.distribution("난이도 분포", r.DistributionStats.DifficultyDistribution)
	w.distribution("상태 분포", r.DistributionStats.StatusDistribution)

	if c := r.ComparisonStats; c != nil && c.TeamComparison != nil {
		w.title("팀 비교")
		w.pair("팀 평균 완료 시간", c.TeamComparison.TeamAvgCompletionTime)
		w.pair("팀 평균 점수", c.TeamComparison.TeamAvgScore)
		w.pair("내 완료 시간", c.TeamComparison.MyCompletionTime)
		w.pair("내 점수", c.TeamComparison.MyScore)
		w.pair("상대 효율(%)", c.TeamComparison.RelativeEfficiency)
	}
	if c := r.ComparisonStats; c != nil && c.DepartmentComparison != nil {
		w.title("부서 비교")
		w.pair("부서 평균 완료 시간", c.DepartmentComparison.DeptAvgCompletionTime)
		w.pair("부서 평균 점수", c.DepartmentComparison.DeptAvgScore)
		w.pair("내 완료 시간", c.DepartmentComparison.MyCompletionTime)
		w.pair("내 점수", c.DepartmentComparison.MyScore)
		w.pair("상대 효율(%)", c.DepartmentComparison.RelativeEfficiency)
	}

	hours := w.next("일별 근무 시간")
	hours.header("날짜", "시간")
	for _, d := range r.TimeStats.DailyWorkHours {
		hours.values(false, d.Date, d.Hours)
	}

	return finish(f, hours.err)
}

// Workbook renders the department report with a member sheet.
func (r *DepartmentReport) Workbook() (*excelize.File, error) {
	f, w, err := newWorkbook("부서 보고서")
	if err != nil {
		return nil, err
	}

	w.title(fmt.Sprintf("%s (%s)", r.Department.Name, r.Department.Code))
	w.pair("기간", r.Period.StartDate+" ~ "+r.Period.EndDate)
	w.pair("전체 작업", r.BasicStats.TotalTasks)
	w.pair("완료 작업", r.BasicStats.CompletedTasks)
	w.pair("진행중 작업", r.BasicStats.InProgressTasks)
	w.pair("지연 작업", r.BasicStats.DelayedTasks)
	w.pair("지연율(%)", r.BasicStats.DelayRate)
	w.pair("평균 완료 시간", optional(r.AverageCompletionTime))

	w.distribution("우선순위 분포", r.DistributionStats.PriorityDistribution)
	w.distribution("난이도 분포", r.DistributionStats.DifficultyDistribution)
	w.distribution("상태 분포", r.DistributionStats.StatusDistribution)

	w.title("월별 통계")
	w.header("월", "전체", "완료", "지연")
	for _, m := range r.MonthlyStats {
		w.values(false, m.Month, m.Total, m.Completed, m.Delayed)
	}

	members := w.next("구성원")
	members.width("B", "I", 16)
	members.header("사번", "이름", "직급", "전체", "완료", "지연", "완료율(%)", "평균 점수")
	for _, m := range r.Members {
		members.values(false, m.EmployeeID, m.Name, string(m.Rank), m.TotalTasks, m.CompletedTasks,
			m.DelayedTasks, m.CompletionRate, m.AverageScore)
	}

	return finish(f, members.err)
}
