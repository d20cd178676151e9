package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/response"
)

// ExaminerHandler 考官端 HTTP 处理器
type ExaminerHandler struct {
	examSvc         service.ExamService
	availabilitySvc service.AvailabilityService
}

// NewExaminerHandler 创建 ExaminerHandler
func NewExaminerHandler(examSvc service.ExamService, availabilitySvc service.AvailabilityService) *ExaminerHandler {
	return &ExaminerHandler{examSvc: examSvc, availabilitySvc: availabilitySvc}
}

// Allocate 考官为自己分配当日候选人
// POST /api/v1/examiner/allocate
func (h *ExaminerHandler) Allocate(c *gin.Context) {
	var req dto.AllocateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	examinerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	allocation, err := h.examSvc.AllocateForExaminer(c.Request.Context(), examinerID, req.Date)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.Created(c, allocation)
}

// ToggleAvailability 切换可用状态
// POST /api/v1/examiner/availability/toggle
func (h *ExaminerHandler) ToggleAvailability(c *gin.Context) {
	var req dto.ToggleAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	examinerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.availabilitySvc.Toggle(c.Request.Context(), examinerID, req.Date)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.OK(c, result)
}

// ListAvailability 考官的可用日期
// GET /api/v1/examiner/availability
func (h *ExaminerHandler) ListAvailability(c *gin.Context) {
	examinerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dates, err := h.availabilitySvc.ListDates(c.Request.Context(), examinerID)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.OK(c, gin.H{"dates": dates})
}

// Calendar 考官日历视图数据
// GET /api/v1/examiner/calendar
func (h *ExaminerHandler) Calendar(c *gin.Context) {
	examinerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cal, err := h.availabilitySvc.Calendar(c.Request.Context(), examinerID)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.OK(c, cal)
}
