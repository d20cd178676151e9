package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/pkg/redis"
	"github.com/savalagikadappa/infosys/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// 已认证请求按用户计数，其余按客户端 IP 计数
// rdb 为 nil 时降级放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if uid := c.GetString("user_id"); uid != "" {
			subject = "u:" + uid
		}
		key := fmt.Sprintf("rate_limit:%s:%s", subject, c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			// Redis 出错时降级放行
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
