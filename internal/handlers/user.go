package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/utils"
)

// UserHandler serves the employee directory.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns the users visible to the caller.
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	input := services.ListUsersInput{
		IncludeChildDepts: includeChildDepts(c),
		Search:            c.Query("search"),
		Pagination:        utils.GetPaginationParams(c),
	}
	if input.IsActive, ok = queryBool(c, "is_active"); !ok {
		return
	}
	if v := c.Query("rank"); v != "" {
		rank := models.Rank(v)
		input.Rank = &rank
	}
	if v := c.Query("role"); v != "" {
		role := models.Role(v)
		input.Role = &role
	}

	departmentID, matchable := departmentFilter(c)
	if !matchable {
		c.JSON(http.StatusOK, dto.NewPage(c, input.Pagination, 0, []dto.UserDTO{}))
		return
	}
	input.DepartmentID = departmentID

	users, total, err := h.userService.List(actor, input)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(c, input.Pagination, total, dto.Map(users, dto.ToUserDTO)))
}

// GetUser returns a single visible user.
func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(actor, id)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(actor, actor.ID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser onboards an employee.
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Username    string       `json:"username" binding:"required"`
		Password    string       `json:"password" binding:"required"`
		Email       string       `json:"email" binding:"omitempty,email"`
		FirstName   string       `json:"first_name"`
		LastName    string       `json:"last_name"`
		Role        *models.Role `json:"role" binding:"omitempty,role"`
		Rank        *models.Rank `json:"rank" binding:"omitempty,rank"`
		Department  *uint64      `json:"department"`
		IsStaff     bool         `json:"is_staff"`
		IsSuperuser bool         `json:"is_superuser"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(actor, services.CreateUserInput{
		Username:     req.Username,
		Password:     req.Password,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Rank:         req.Rank,
		DepartmentID: req.Department,
		IsStaff:      req.IsStaff,
		IsSuperuser:  req.IsSuperuser,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateUser changes a user. PUT and PATCH both apply only the fields sent.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	type UpdateUserRequest struct {
		Email      *string      `json:"email" binding:"omitempty,email"`
		FirstName  *string      `json:"first_name"`
		LastName   *string      `json:"last_name"`
		Password   *string      `json:"password"`
		Role       *models.Role `json:"role" binding:"omitempty,role"`
		Rank       *models.Rank `json:"rank" binding:"omitempty,rank"`
		Department nullableID   `json:"department"`
		IsActive   *bool        `json:"is_active"`
		IsStaff    *bool        `json:"is_staff"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(actor, id, services.UpdateUserInput{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password,
		Role:            req.Role,
		Rank:            req.Rank,
		DepartmentID:    req.Department.Value,
		ClearDepartment: req.Department.Set && req.Department.Value == nil,
		IsActive:        req.IsActive,
		IsStaff:         req.IsStaff,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser deactivates a user.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.userService.Deactivate(actor, id); err != nil {
		respondUserError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CurrentTasks lists what a user is working on right now.
func (h *UserHandler) CurrentTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	tasks, err := h.userService.CurrentTasks(actor, id)
	if err != nil {
		respondUserError(c, err)
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, dto.Map(tasks, func(t models.Task) dto.TaskDTO { return dto.ToTaskDTO(t, now) }))
}

func respondUserError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, "이미 사용 중인 아이디입니다.")
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("비밀번호는 %d자 이상이어야 합니다.", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidUsername):
		apierrors.BadRequest(c, "아이디 형식이 올바르지 않습니다.")
	case errors.Is(err, services.ErrSelfUpdateRestricted):
		apierrors.Forbidden(c, "본인 계정은 이름, 이메일, 비밀번호만 변경할 수 있습니다.")
	default:
		respondInternal(c, err)
	}
}
