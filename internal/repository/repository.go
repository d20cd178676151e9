package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User         UserRepository
	Session      TrainingSessionRepository
	Enrollment   EnrollmentRepository
	Availability AvailabilityRepository
	Allocation   AllocationRepository
	Notification NotificationRepository
	Tx           TxManager

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	r := &Repository{
		User:         NewUserRepo(db),
		Session:      NewTrainingSessionRepo(db),
		Enrollment:   NewEnrollmentRepo(db),
		Availability: NewAvailabilityRepo(db),
		Allocation:   NewAllocationRepo(db),
		Notification: NewNotificationRepo(db),
		db:           db,
	}
	r.Tx = &gormTxManager{repo: r}
	return r
}

// BeginTx 手动开启事务（调用方负责 Commit/Rollback）
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到指定事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// ── 事务管理 ──

// TxManager 事务边界抽象，便于服务层在单测中替换
type TxManager interface {
	// Transaction 在单个数据库事务内执行 fn
	Transaction(ctx context.Context, fn func(tx *Repository) error) error
	// WithDateLock 在持有日期级咨询锁的事务内执行 fn，同一日期的写入串行化
	WithDateLock(ctx context.Context, date time.Time, fn func(tx *Repository) error) error
}

type gormTxManager struct {
	repo *Repository
}

func (m *gormTxManager) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return m.repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(m.repo.WithTx(tx))
	})
}

func (m *gormTxManager) WithDateLock(ctx context.Context, date time.Time, fn func(tx *Repository) error) error {
	key := "exam-date:" + date.UTC().Format("2006-01-02")
	return m.repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 事务级咨询锁，提交或回滚时自动释放
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return err
		}
		return fn(m.repo.WithTx(tx))
	})
}
