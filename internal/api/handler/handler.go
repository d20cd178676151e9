package handler

import (
	"github.com/savalagikadappa/infosys/internal/service"
	"github.com/savalagikadappa/infosys/pkg/realtime"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Session      *SessionHandler
	Exam         *ExamHandler
	Examiner     *ExaminerHandler
	Notification *NotificationHandler
	Event        *EventHandler
	Export       *ExportHandler
	Calendar     *CalendarHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, events *realtime.Hub) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Session:      NewSessionHandler(svc.Session),
		Exam:         NewExamHandler(svc.Exam, svc.Availability),
		Examiner:     NewExaminerHandler(svc.Exam, svc.Availability),
		Notification: NewNotificationHandler(svc.Notification),
		Event:        NewEventHandler(events),
		Export:       NewExportHandler(svc.Export),
		Calendar:     NewCalendarHandler(svc.Calendar),
	}
}
