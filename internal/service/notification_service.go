package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/repository"
	"github.com/savalagikadappa/infosys/pkg/mail"
)

// ── 通知模块业务错误 ──

var ErrNotificationNotFound = errors.New("通知不存在")

// Notifier 通知分发：写入站内信并发送邮件
// 调用方不等待结果，失败只记录日志
type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, content string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string, string, string, interface{}) {}

// NotificationService 站内通知业务接口
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID string) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, userID string) error
}

const (
	notificationListLimit = 50
	notifyTimeout         = 15 * time.Second
)

type notificationService struct {
	repo   *repository.Repository
	sender mail.Sender
	logger *zap.Logger
	// async=false 时同步投递（测试使用）
	async bool
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, sender mail.Sender, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, sender: sender, logger: logger, async: true}
}

func (s *notificationService) Notify(ctx context.Context, userID, kind, title, content string, payload interface{}) {
	if !s.async {
		s.deliver(ctx, userID, kind, title, content, payload)
		return
	}
	// 脱离请求生命周期，请求结束后仍继续投递
	bg := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(bg, notifyTimeout)
		defer cancel()
		s.deliver(ctx, userID, kind, title, content, payload)
	}()
}

func (s *notificationService) deliver(ctx context.Context, userID, kind, title, content string, payload interface{}) {
	n := &model.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Content: content,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("通知附加数据序列化失败", zap.Error(err))
		} else {
			n.Payload = datatypes.JSON(raw)
		}
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Error("写入站内通知失败", zap.String("user_id", userID), zap.Error(err))
	}

	if s.sender == nil {
		return
	}
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("查询通知收件人失败", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := s.sender.Send(ctx, mail.Message{To: user.Email, Subject: title, Text: content}); err != nil {
		s.logger.Warn("发送通知邮件失败", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, userID string) ([]dto.NotificationResponse, error) {
	list, err := s.repo.Notification.ListByUser(ctx, userID, notificationListLimit)
	if err != nil {
		s.logger.Error("查询通知失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.NotificationResponse, len(list))
	for i, n := range list {
		out[i] = dto.NotificationResponse{
			ID:        n.NotificationID,
			Type:      n.Type,
			Title:     n.Title,
			Content:   n.Content,
			Payload:   json.RawMessage(n.Payload),
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.Notification.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("标记通知已读失败", zap.Error(err))
		return err
	}
	return nil
}
