package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/utils"
)

const formatXLSX = "xlsx"

// ReportHandler serves the personal, department and performance reports and
// the saved report templates.
type ReportHandler struct {
	reportService   *services.ReportService
	templateService *services.ReportTemplateService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *services.ReportService, templateService *services.ReportTemplateService) *ReportHandler {
	return &ReportHandler{reportService: reportService, templateService: templateService}
}

// period reads start_date and end_date. Missing values are left zero so the
// service reports them.
func period(c *gin.Context) (services.Period, bool) {
	var p services.Period
	start, ok := queryDate(c, "start_date", false)
	if !ok {
		return p, false
	}
	end, ok := queryDate(c, "end_date", false)
	if !ok {
		return p, false
	}
	if start != nil {
		p.Start = *start
	}
	if end != nil {
		p.End = *end
	}
	return p, true
}

// PersonalReport summarizes one employee's tasks. format=xlsx downloads a workbook.
func (h *ReportHandler) PersonalReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p, ok := period(c)
	if !ok {
		return
	}
	employeeID, ok := queryUint64(c, "employee_id")
	if !ok {
		return
	}

	report, err := h.reportService.PersonalReport(actor, employeeID, p)
	if err != nil {
		respondReportError(c, err)
		return
	}

	if c.Query("format") == formatXLSX {
		writeWorkbook(c, "personal_report", p, report.Workbook)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DepartmentReport summarizes a department. Without ?department the caller's
// own department is used.
func (h *ReportHandler) DepartmentReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p, ok := period(c)
	if !ok {
		return
	}
	departmentID, ok := queryUint64(c, "department")
	if !ok {
		return
	}
	if departmentID == nil {
		departmentID = actor.DepartmentID
	}
	if departmentID == nil {
		apierrors.BadRequestWithDetails(c, "", map[string]string{"department": "required"})
		return
	}

	report, err := h.reportService.DepartmentReport(actor, *departmentID, p)
	if err != nil {
		respondReportError(c, err)
		return
	}

	if c.Query("format") == formatXLSX {
		writeWorkbook(c, "department_report", p, report.Workbook)
		return
	}
	c.JSON(http.StatusOK, report)
}

// PerformanceEvaluation returns an employee's evaluation summary.
func (h *ReportHandler) PerformanceEvaluation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	p, ok := period(c)
	if !ok {
		return
	}
	employeeID, ok := queryUint64(c, "employee_id")
	if !ok {
		return
	}

	report, err := h.reportService.PerformanceEvaluation(actor, employeeID, p)
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func writeWorkbook(c *gin.Context, name string, p services.Period, build func() (*excelize.File, error)) {
	f, err := build()
	if err != nil {
		respondInternal(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		respondInternal(c, err)
		return
	}

	filename := fmt.Sprintf("%s_%s_%s.xlsx", name, p.Start.Format(constants.DateLayout), p.End.Format(constants.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, services.XLSXContentType, buf.Bytes())
}

// Report templates

type reportTemplateRequest struct {
	Name    *string         `json:"name" binding:"omitempty,max=100"`
	Content json.RawMessage `json:"content" binding:"omitempty,json_document"`
}

func (h *ReportHandler) ListTemplates(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	templates, total, err := h.templateService.List(actor, params)
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(c, params, total, dto.Map(templates, dto.ToReportTemplateDTO)))
}

func (h *ReportHandler) GetTemplate(c *gin.Context) {
	getReportRecord(c, h.templateService.Get)
}

func (h *ReportHandler) CreateTemplate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req reportTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	template, err := h.templateService.Create(actor, services.ReportTemplateInput{Name: req.Name, Content: req.Content})
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToReportTemplateDTO(*template))
}

func (h *ReportHandler) UpdateTemplate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reportTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	template, err := h.templateService.Update(actor, id, services.ReportTemplateInput{Name: req.Name, Content: req.Content})
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToReportTemplateDTO(*template))
}

func (h *ReportHandler) DeleteTemplate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.templateService.Delete(actor, id); err != nil {
		respondReportError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func getReportRecord(c *gin.Context, get func(*models.User, uint64) (*models.ReportTemplate, error)) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	template, err := get(actor, id)
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToReportTemplateDTO(*template))
}

func respondReportError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrReportRangeRequired):
		apierrors.BadRequest(c, "start_date와 end_date는 필수 파라미터입니다.")
	case errors.Is(err, services.ErrReportTemplateNotFound):
		apierrors.NotFound(c, "보고서 템플릿을 찾을 수 없습니다.")
	case errors.Is(err, services.ErrInvalidTemplateContent):
		apierrors.BadRequest(c, "템플릿 내용은 JSON 형식이어야 합니다.")
	case errors.Is(err, services.ErrInvalidTemplateName):
		apierrors.BadRequest(c, "템플릿 이름은 필수입니다.")
	default:
		respondInternal(c, err)
	}
}
