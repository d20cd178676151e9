package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/pkg/jwt"
	"github.com/savalagikadappa/infosys/pkg/response"
)

// MustGetUserID 提取 JWTAuth 注入的 user_id；缺失时写入 401，调用方应直接 return
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 提取 JWTAuth 注入的 role
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	if s := c.GetString(key); s != "" {
		return s, true
	}
	response.Unauthorized(c, 10002, "未认证")
	return "", false
}

// GetClaims 提取当前请求的 JWT 声明，未认证时返回 nil
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get("claims")
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
