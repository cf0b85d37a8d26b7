package transport

import (
	"net/http"
	"strconv"

	"github.com/ds124wfegd/eshikshan/internal/service"
	"github.com/ds124wfegd/eshikshan/pkg/hub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type NotificationHandler struct {
	notifications service.NotificationService
	hub           *hub.Hub
	upgrader      websocket.Upgrader
}

// NewNotificationHandler accepts websocket handshakes from allowedOrigins;
// "*" or an empty list admits any origin.
func NewNotificationHandler(notifications service.NotificationService, h *hub.Hub, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		hub:           h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.MaxPageSize)))
	if err != nil || limit <= 0 {
		limit = service.MaxPageSize
	}

	notifications, err := h.notifications.List(c.Request.Context(), actor.Email, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: notifications, Meta: gin.H{"count": len(notifications)}})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), actor.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, actor.Email); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), actor.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "all notifications marked as read", gin.H{"updated": updated})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id, actor.Email); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "notification deleted", nil)
}

func notificationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid notification id"})
		return uuid.Nil, false
	}
	return id, true
}
