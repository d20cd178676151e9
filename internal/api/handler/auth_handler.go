package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register 注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, user)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// RefreshToken 刷新 Token
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout 用户登出，当前 Access Token 加入黑名单
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authSvc.Logout(c.Request.Context(), GetClaims(c)); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// GetCurrentUser 当前登录用户
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// handleAuthError 统一处理认证模块业务错误
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11002, "邮箱已被注册")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 11003, "无效的角色")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Unauthorized(c, 11004, "刷新令牌无效或已失效")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
