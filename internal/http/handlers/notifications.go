package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/http/response"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
	"github.com/yungbote/codecompanion-backend/internal/services"
)

type NotificationHandler struct {
	log *logger.Logger
	svc services.NotificationService
}

func NewNotificationHandler(log *logger.Logger, svc services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		log: log.With("handler", "NotificationHandler"),
		svc: svc,
	}
}

func parseFilter(c *gin.Context) (types.Filter, error) {
	var f types.Filter
	if raw := strings.TrimSpace(c.Query("isRead")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("invalid isRead %q", raw)
		}
		f.IsRead = &v
	}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		t, err := types.ParseType(raw)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	return f, nil
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid notification id"))
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_filter", err)
		return
	}
	list, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		response.RespondServiceError(c, err, "list_notifications_failed")
		return
	}
	response.RespondOK(c, gin.H{"notifications": list})
}

// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err, "unread_count_failed")
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err, "mark_read_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Notification marked as read"})
}

// PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(c.Request.Context()); err != nil {
		response.RespondServiceError(c, err, "mark_all_read_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "All notifications marked as read"})
}

// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, err, "delete_notification_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Notification deleted"})
}

// DELETE /api/notifications
func (h *NotificationHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context()); err != nil {
		response.RespondServiceError(c, err, "clear_notifications_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Notifications cleared"})
}
