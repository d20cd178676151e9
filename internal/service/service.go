package service

import (
	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/repository"
	"github.com/savalagikadappa/infosys/pkg/jwt"
	"github.com/savalagikadappa/infosys/pkg/mail"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Session      TrainingSessionService
	Availability AvailabilityService
	Exam         ExamService
	Notification NotificationService
	Export       ExportService
	Calendar     CalendarService
}

// Deps 外部协作组件；均可为 nil，Cache 缺省时使用进程内缓存
type Deps struct {
	Cache     AvailableDatesCache
	Events    EventPublisher
	Mail      mail.Sender
	Blacklist TokenBlacklist
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Deps,
	logger *zap.Logger,
) *Service {
	cache := deps.Cache
	if cache == nil {
		cache = NewMemoryDatesCache(cfg.Cache.AvailableDatesTTL)
	}
	notifications := NewNotificationService(repo, deps.Mail, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, deps.Blacklist, logger),
		User:         NewUserService(repo, logger),
		Session:      NewTrainingSessionService(repo, deps.Events, notifications, logger),
		Availability: NewAvailabilityService(cfg, repo, cache, deps.Events, logger),
		Exam:         NewExamService(cfg, repo, cache, deps.Events, notifications, logger),
		Notification: notifications,
		Export:       NewExportService(repo, logger),
		Calendar:     NewCalendarService(repo, logger),
	}
}
