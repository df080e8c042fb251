package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/workforce-api/internal/dto"
	apierrors "github.com/yukikurage/workforce-api/internal/errors"
	"github.com/yukikurage/workforce-api/internal/models"
	"github.com/yukikurage/workforce-api/internal/services"
	"github.com/yukikurage/workforce-api/internal/utils"
)

// NotificationHandler serves the caller's inbox.
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications lists the caller's notifications, newest first.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	input := services.ListNotificationsInput{Pagination: utils.GetPaginationParams(c)}
	if input.IsRead, ok = queryBool(c, "is_read"); !ok {
		return
	}
	if v := c.Query("notification_type"); v != "" {
		t := models.NotificationType(v)
		input.Type = &t
	}

	notifications, total, err := h.notificationService.List(actor, input)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(c, input.Pagination, total, dto.Map(notifications, dto.ToNotificationDTO)))
}

func (h *NotificationHandler) GetNotification(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	notification, err := h.notificationService.Get(actor, id)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationDTO(*notification))
}

// UpdateNotification sets is_read.
func (h *NotificationHandler) UpdateNotification(c *gin.Context) {
	type UpdateNotificationRequest struct {
		IsRead *bool `json:"is_read" binding:"required"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateNotificationRequest
	if !bindJSON(c, &req) {
		return
	}

	h.setRead(c, actor, id, *req.IsRead)
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	h.setRead(c, actor, id, true)
}

func (h *NotificationHandler) setRead(c *gin.Context, actor *models.User, id uint64, read bool) {
	notification, err := h.notificationService.SetRead(actor, id, read)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationDTO(*notification))
}

// MarkAllRead marks the whole inbox as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if _, err := h.notificationService.MarkAllRead(actor); err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "모든 알림이 읽음 처리되었습니다."})
}

// UnreadCount returns the number of unread notifications.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(actor)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(actor, id); err != nil {
		respondNotificationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotificationNotFound):
		apierrors.NotFound(c, "알림을 찾을 수 없습니다.")
	default:
		respondInternal(c, err)
	}
}
