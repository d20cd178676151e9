package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/pkg/realtime"
)

const sseHeartbeat = 25 * time.Second

// EventSource 事件订阅来源，由 realtime.Hub 实现
type EventSource interface {
	Subscribe() (<-chan realtime.Event, func())
}

// EventHandler Server-Sent Events 推送
type EventHandler struct {
	source EventSource
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(source EventSource) *EventHandler {
	return &EventHandler{source: source}
}

// Stream 推送数据变更事件，客户端收到后自行刷新
// GET /api/v1/events
func (h *EventHandler) Stream(c *gin.Context) {
	events, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	// 长连接不受 Server.WriteTimeout 限制
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(evt.Type, evt)
			return true
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		}
	})
}
