package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowHeaders  = "Content-Type, Authorization, X-Requested-With, X-Request-ID, Last-Event-ID"
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsExposeHeaders = "X-Request-ID, Content-Disposition, Retry-After"
)

// CORS 跨域中间件
// allowOrigins 含 "*" 时放行任意来源，此时不携带凭证
func CORS(allowOrigins []string) gin.HandlerFunc {
	allowAll := false
	originsMap := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		originsMap[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		switch {
		case origin == "":
		case originsMap[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		default:
			origin = ""
		}

		if origin != "" {
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
