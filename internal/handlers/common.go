package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/middleware"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/utils"
	"github.com/yukikurage/workforce-api/internal/validation"
)

const (
	msgInvalidID        = "잘못된 ID입니다."
	msgInvalidDate      = "날짜 형식이 올바르지 않습니다."
	msgInvalidDateRange = "기간이 올바르지 않습니다."
)

// currentActor returns the authenticated user or answers 401.
func currentActor(c *gin.Context) (*models.User, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return nil, false
	}
	return actor, true
}

// pathID returns the :id path parameter or answers 400.
func pathID(c *gin.Context) (uint64, bool) {
	id, ok := middleware.GetIDParam(c)
	if !ok {
		apierrors.BadRequest(c, msgInvalidID)
		return 0, false
	}
	return id, true
}

// bindJSON binds the body into req and answers 400 with field details on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if fields := validation.FieldErrors(err); fields != nil {
			apierrors.BadRequestWithDetails(c, "", fields)
		} else {
			apierrors.BadRequest(c, "")
		}
		return false
	}
	return true
}

// queryUint64 parses an optional id query parameter. It answers 400 when the
// value is present but not a number.
func queryUint64(c *gin.Context, name string) (*uint64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, ok := utils.ParseUint64(raw)
	if !ok {
		apierrors.BadRequestWithDetails(c, "", map[string]string{name: "invalid"})
		return nil, false
	}
	return &id, true
}

// departmentFilter reads the department list filter. A value that is not an
// id matches no department, reported as matchable false.
func departmentFilter(c *gin.Context) (id *uint64, matchable bool) {
	raw := strings.TrimSpace(c.Query("department"))
	if raw == "" {
		return nil, true
	}
	v, ok := utils.ParseUint64(raw)
	if !ok {
		return nil, false
	}
	return &v, true
}

// includeChildDepts reports whether a department filter covers its teams.
// Only an explicit false turns the expansion off.
func includeChildDepts(c *gin.Context) bool {
	return c.Query("include_child_depts") != "false"
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		apierrors.BadRequestWithDetails(c, "", map[string]string{name: "invalid"})
		return nil, false
	}
	return &v, true
}

// queryDate parses an optional date query parameter. With endOfDay set a
// date-only value covers the whole day.
func queryDate(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, dateOnly, err := utils.ParseDate(raw)
	if err != nil {
		apierrors.BadRequestWithDetails(c, msgInvalidDate, map[string]string{name: "invalid"})
		return nil, false
	}
	if dateOnly && endOfDay {
		t = utils.EndOfDay(t)
	}
	return &t, true
}

// respondCommonError handles the errors every resource shares. It reports
// false when err is not one of them.
func respondCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "작업을 찾을 수 없습니다.")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "사용자를 찾을 수 없습니다.")
	case errors.Is(err, services.ErrDepartmentNotFound):
		apierrors.NotFound(c, "부서를 찾을 수 없습니다.")
	case errors.Is(err, services.ErrInvalidDateRange):
		apierrors.BadRequest(c, msgInvalidDateRange)
	default:
		return false
	}
	return true
}

// respondInternal logs err on the context and answers 500.
func respondInternal(c *gin.Context, err error) {
	_ = c.Error(err)
	apierrors.InternalError(c, "")
}

// nullableID tells an absent field apart from an explicit null.
type nullableID struct {
	Set   bool
	Value *uint64
}

func (n *nullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var id uint64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	n.Value = &id
	return nil
}
