package middleware

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/utils"
)

const contextKeyIDParam = "id_param"

// RequireIDParam rejects requests whose :id path segment is not a positive integer
func RequireIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := utils.ParseUint64(c.Param("id"))
		if !ok || id == 0 {
			apierrors.BadRequest(c, "잘못된 ID입니다.")
			return
		}

		c.Set(contextKeyIDParam, id)
		c.Next()
	}
}

// GetIDParam returns the id parsed by RequireIDParam, parsing it again when the
// middleware did not run.
func GetIDParam(c *gin.Context) (uint64, bool) {
	if v, exists := c.Get(contextKeyIDParam); exists {
		if id, ok := v.(uint64); ok {
			return id, true
		}
	}
	id, ok := utils.ParseUint64(c.Param("id"))
	return id, ok && id != 0
}
