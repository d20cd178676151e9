package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/response"
)

// NotificationHandler 站内通知 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List 当前用户的通知
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.notificationSvc.List(c.Request.Context(), userID)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// MarkRead 标记已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			response.NotFound(c, 15001, "通知不存在")
			return
		}
		writeExamError(c, err)
		return
	}

	response.OK(c, nil)
}
