package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/internal/model"
)

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// MarkRead 仅允许本人标记；记录不存在时返回 gorm.ErrRecordNotFound
func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_read":    true,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
