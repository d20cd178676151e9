package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey    = "request_id"
	requestIDMaxLen = 64
)

// RequestID 请求追踪 ID 中间件
// 沿用上游的 X-Request-ID，缺失或不合法时生成 UUID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if !validRequestID(rid) {
			rid = uuid.New().String()
		}

		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}

// validRequestID 限制长度与字符集，防止日志注入
func validRequestID(rid string) bool {
	if rid == "" || len(rid) > requestIDMaxLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		ch := rid[i]
		if ch < 0x21 || ch > 0x7e {
			return false
		}
	}
	return true
}
