package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/response"
)

// SessionHandler 培训课程与报名 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.TrainingSessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.TrainingSessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSession 讲师创建课程
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	trainerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Create(c.Request.Context(), trainerID, &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, session)
}

// ListMine 讲师自己的课程（含报名）
// GET /api/v1/sessions/mine
func (h *SessionHandler) ListMine(c *gin.Context) {
	trainerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sessions, err := h.sessionSvc.ListMine(c.Request.Context(), trainerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// DeleteSession 讲师删除课程
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	trainerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Delete(c.Request.Context(), trainerID, c.Param("id")); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListAvailable 候选人未报名的课程
// GET /api/v1/sessions/available
func (h *SessionHandler) ListAvailable(c *gin.Context) {
	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sessions, err := h.sessionSvc.ListAvailable(c.Request.Context(), candidateID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// ListEnrolled 候选人已报名课程及培训日期
// GET /api/v1/sessions/enrolled
func (h *SessionHandler) ListEnrolled(c *gin.Context) {
	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.sessionSvc.ListEnrolled(c.Request.Context(), candidateID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Enroll 候选人报名课程
// POST /api/v1/sessions/:id/enroll
func (h *SessionHandler) Enroll(c *gin.Context) {
	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.sessionSvc.Enroll(c.Request.Context(), candidateID, c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// handleSessionError 统一处理课程模块业务错误
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotOwner):
		response.Fail(c, http.StatusForbidden, 14109, "SessionNotOwner", "只能删除自己创建的课程", "")
	case errors.Is(err, service.ErrInvalidMode):
		response.Fail(c, http.StatusBadRequest, 14004, "InvalidMode", "培训方式仅支持 online 或 offline", "")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Fail(c, http.StatusConflict, 14110, "AlreadyEnrolled", "已报名该课程", "")
	case errors.Is(err, service.ErrWeekdayConflict):
		response.Fail(c, http.StatusConflict, 14111, "WeekdayConflict", "已报名同一天上课的其他课程", "")
	case errors.Is(err, service.ErrSessionHasExams):
		response.Fail(c, http.StatusConflict, 14112, "SessionHasExams", "课程已有考试安排，无法删除", "")
	default:
		writeExamError(c, err)
	}
}
