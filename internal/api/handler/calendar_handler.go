package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savalagikadappa/infosys/internal/service"
)

// CalendarHandler ICS 日历订阅
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// ICS 当前用户的日历
// GET /api/v1/calendar.ics
func (h *CalendarHandler) ICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	raw, err := h.calendarSvc.UserCalendar(c.Request.Context(), userID, role)
	if err != nil {
		writeExamError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="academy.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(raw))
}
