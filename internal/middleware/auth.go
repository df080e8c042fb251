package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/constants"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/models"
)

// Authenticator resolves an access token to an active user.
type Authenticator interface {
	Authenticate(accessToken string) (*models.User, error)
}

// RequireAuth checks the Bearer access token and loads the caller
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		user, err := auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			apierrors.Unauthorized(c, "")
			return
		}

		// Store user in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyActor, user)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetActor retrieves the authenticated user from context
func GetActor(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}
