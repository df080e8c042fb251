package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/constants"
	"github.com/yukikurage/workforce-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login checks credentials, returns an access token and keeps the refresh
// token in the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Login(services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if !storeRefresh(c, pair) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access": pair.Access,
		"user":   dto.ToUserDTO(*pair.User),
	})
}

// Refresh exchanges the session's refresh token for a new access token and
// rotates the refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	session := sessions.Default(c)
	token, _ := session.Get(constants.SessionKeyRefreshTok).(string)
	jti, _ := session.Get(constants.SessionKeyRefreshJTI).(string)
	if token == "" || jti == "" {
		apierrors.Unauthorized(c, "")
		return
	}

	pair, err := h.authService.Refresh(token, jti)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if !storeRefresh(c, pair) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": pair.Access})
}

// Logout removes the refresh token from the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/api", MaxAge: -1, HttpOnly: true})
	if err := session.Save(); err != nil {
		respondInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "로그아웃되었습니다."})
}

func storeRefresh(c *gin.Context, pair *services.TokenPair) bool {
	session := sessions.Default(c)
	session.Set(constants.SessionKeyRefreshTok, pair.Refresh)
	session.Set(constants.SessionKeyRefreshJTI, pair.RefreshJTI)
	if err := session.Save(); err != nil {
		respondInternal(c, err)
		return false
	}
	return true
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrTokenExpired),
		errors.Is(err, services.ErrUserInactive):
		apierrors.Unauthorized(c, "")
	default:
		respondInternal(c, err)
	}
}
