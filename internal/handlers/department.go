package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/utils"
)

// DepartmentHandler serves the organization chart.
type DepartmentHandler struct {
	departmentService *services.DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler.
func NewDepartmentHandler(departmentService *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// ListDepartments lists departments. parent=null keeps only headquarters.
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	input := services.ListDepartmentsInput{
		Search:     c.Query("search"),
		Pagination: utils.GetPaginationParams(c),
	}
	if strings.EqualFold(c.Query("parent"), "null") {
		input.RootsOnly = true
	} else {
		var ok bool
		if input.ParentID, ok = queryUint64(c, "parent"); !ok {
			return
		}
	}

	departments, total, err := h.departmentService.List(input)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(c, input.Pagination, total, dto.Map(departments, dto.ToDepartmentDTO)))
}

// GetDepartment returns one department.
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	department, err := h.departmentService.Get(id)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDepartmentDTO(*department))
}

// Children lists the teams of a department.
func (h *DepartmentHandler) Children(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	children, err := h.departmentService.Children(id)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Map(children, dto.ToDepartmentDTO))
}

type departmentRequest struct {
	Name   *string    `json:"name" binding:"omitempty,max=100"`
	Code   *string    `json:"code" binding:"omitempty,max=20"`
	Parent nullableID `json:"parent"`
}

// CreateDepartment adds a headquarters or a team.
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req departmentRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.DepartmentInput{ParentID: req.Parent.Value}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Code != nil {
		input.Code = *req.Code
	}

	department, err := h.departmentService.Create(actor, input)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToDepartmentDTO(*department))
}

// UpdateDepartment changes a department. Fields left out keep their value.
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req departmentRequest
	if !bindJSON(c, &req) {
		return
	}

	current, err := h.departmentService.Get(id)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}
	input := services.DepartmentInput{Name: current.Name, Code: current.Code, ParentID: current.ParentID}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Code != nil {
		input.Code = *req.Code
	}
	if req.Parent.Set {
		input.ParentID = req.Parent.Value
	}

	department, err := h.departmentService.Update(actor, id, input)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDepartmentDTO(*department))
}

// DeleteDepartment removes a department with its teams and tasks.
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.departmentService.Delete(actor, id); err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondDepartmentError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrDepartmentCodeTaken):
		apierrors.Conflict(c, "이미 사용 중인 부서 코드입니다.")
	case errors.Is(err, services.ErrParentNotHeadquarters):
		apierrors.BadRequest(c, "상위 부서는 본부여야 합니다.")
	case errors.Is(err, services.ErrDepartmentHasChildren):
		apierrors.BadRequest(c, "하위 팀이 있는 부서는 팀이 될 수 없습니다.")
	case errors.Is(err, services.ErrInvalidDepartmentFields):
		apierrors.BadRequest(c, "부서명과 부서 코드는 필수입니다.")
	default:
		respondInternal(c, err)
	}
}
