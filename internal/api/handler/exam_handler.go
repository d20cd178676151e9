package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/response"
)

// ExamHandler 考试预约 HTTP 处理器
type ExamHandler struct {
	examSvc         service.ExamService
	availabilitySvc service.AvailabilityService
}

// NewExamHandler 创建 ExamHandler
func NewExamHandler(examSvc service.ExamService, availabilitySvc service.AvailabilityService) *ExamHandler {
	return &ExamHandler{examSvc: examSvc, availabilitySvc: availabilitySvc}
}

// EligibleSessions 候选人在某日可预约考试的课程
// GET /api/v1/exams/eligible-sessions?date=2025-01-28
func (h *ExamHandler) EligibleSessions(c *gin.Context) {
	var req dto.EligibleSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.examSvc.EligibleSessions(c.Request.Context(), candidateID, req.Date)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// AvailableDates 至少一名考官未满额的日期；fresh=1 跳过缓存
// GET /api/v1/exams/available-dates
func (h *ExamHandler) AvailableDates(c *gin.Context) {
	var req dto.AvailableDatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	dates, err := h.availabilitySvc.AvailableDates(c.Request.Context(), req.Fresh)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.OK(c, gin.H{"dates": dates})
}

// Schedule 候选人预约考试
// POST /api/v1/exams/schedule
func (h *ExamHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	allocation, err := h.examSvc.Schedule(c.Request.Context(), candidateID, &req)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.Created(c, allocation)
}

// ByDate 某日全部考试安排
// GET /api/v1/exams/by-date?date=2025-02-01
func (h *ExamHandler) ByDate(c *gin.Context) {
	var req dto.ExamsByDateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeBindError(c, err)
		return
	}

	list, err := h.examSvc.ListByDate(c.Request.Context(), req.Date)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Mine 候选人自己的考试安排
// GET /api/v1/exams/mine
func (h *ExamHandler) Mine(c *gin.Context) {
	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.examSvc.ListMine(c.Request.Context(), candidateID)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// writeExamError 考试分配相关业务错误 → HTTP 状态码 + 业务码 + error_kind
func writeExamError(c *gin.Context, err error) {
	var notYet *service.NotYetEligibleError
	switch {
	case errors.Is(err, service.ErrInvalidWeekday):
		response.Fail(c, http.StatusBadRequest, 14001, "InvalidWeekday", "无效的星期取值", "")
	case errors.Is(err, service.ErrMissingParameter):
		response.Fail(c, http.StatusBadRequest, 14002, "MissingParameter", "缺少必填参数", "")
	case errors.Is(err, service.ErrInvalidDate):
		response.Fail(c, http.StatusBadRequest, 14003, "InvalidDate", "日期格式错误，应为 yyyy-mm-dd", "")
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, 14101, "NotEnrolled", "未报名该课程", "")
	case errors.As(err, &notYet):
		response.Fail(c, http.StatusBadRequest, 14102, "NotYetEligible", notYet.Error(), service.FormatDate(notYet.LastDate))
	case errors.Is(err, service.ErrAlreadyScheduled):
		response.Fail(c, http.StatusConflict, 14103, "AlreadyScheduled", "该课程已预约考试", "")
	case errors.Is(err, service.ErrCandidateDoubleBooked):
		response.Fail(c, http.StatusConflict, 14104, "CandidateDoubleBooked", "当日已有其他考试", "")
	case errors.Is(err, service.ErrNoExaminerAvailable):
		response.Fail(c, http.StatusConflict, 14105, "NoExaminerAvailable", "当日无考官可用", "")
	case errors.Is(err, service.ErrExaminersFullyBooked):
		response.Fail(c, http.StatusConflict, 14106, "ExaminersFullyBooked", "当日考官已约满", "")
	case errors.Is(err, service.ErrNoEligibleCandidate):
		response.Fail(c, http.StatusConflict, 14107, "NoEligibleCandidate", "当日无可分配的候选人", "")
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, 14108, "SessionNotFound", "课程不存在", "")
	case errors.Is(err, service.ErrStoreUnavailable):
		response.ServiceUnavailable(c)
	default:
		response.InternalError(c)
	}
}

// writeBindError 日期字段缺失或格式错误时返回对应的 error_kind
// 空请求体或非 JSON 请求体视为参数缺失
func writeBindError(c *gin.Context, err error) {
	var syntaxErr *json.SyntaxError
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntaxErr) {
		writeExamError(c, service.ErrMissingParameter)
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			writeExamError(c, service.ErrMissingParameter)
			return
		case "isodate":
			writeExamError(c, service.ErrInvalidDate)
			return
		}
	}
	response.BadRequest(c, 10001, "参数校验失败")
}
