package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/internal/model"
	pkgerrors "github.com/savalagikadappa/infosys/pkg/errors"
)

// TrainingSessionRepository 培训课程数据访问接口
type TrainingSessionRepository interface {
	Create(ctx context.Context, session *model.TrainingSession) error
	GetByID(ctx context.Context, id string) (*model.TrainingSession, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.TrainingSession, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]model.TrainingSession, error)
	ListNotEnrolled(ctx context.Context, candidateID string) ([]model.TrainingSession, error)
	Delete(ctx context.Context, id string) error
}

type trainingSessionRepo struct {
	db *gorm.DB
}

// NewTrainingSessionRepo 创建 TrainingSessionRepository 实例
func NewTrainingSessionRepo(db *gorm.DB) TrainingSessionRepository {
	return &trainingSessionRepo{db: db}
}

func (r *trainingSessionRepo) Create(ctx context.Context, session *model.TrainingSession) error {
	return r.db.WithContext(ctx).Omit("Enrollments").Create(session).Error
}

func (r *trainingSessionRepo) GetByID(ctx context.Context, id string) (*model.TrainingSession, error) {
	var session model.TrainingSession
	err := r.db.WithContext(ctx).Where("session_id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *trainingSessionRepo) ListByIDs(ctx context.Context, ids []string) ([]model.TrainingSession, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var sessions []model.TrainingSession
	err := r.db.WithContext(ctx).Where("session_id IN ?", ids).Find(&sessions).Error
	return sessions, err
}

func (r *trainingSessionRepo) ListByTrainer(ctx context.Context, trainerID string) ([]model.TrainingSession, error) {
	var sessions []model.TrainingSession
	err := r.db.WithContext(ctx).
		Preload("Enrollments", func(db *gorm.DB) *gorm.DB {
			return db.Order("enrolled_at ASC")
		}).
		Where("created_by = ?", trainerID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *trainingSessionRepo) ListNotEnrolled(ctx context.Context, candidateID string) ([]model.TrainingSession, error) {
	var sessions []model.TrainingSession
	err := r.db.WithContext(ctx).
		Where("session_id NOT IN (?)",
			r.db.Model(&model.Enrollment{}).Select("session_id").Where("candidate_id = ?", candidateID)).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// Delete 删除课程，报名记录由外键级联删除；已有考试分配时外键拒绝删除
func (r *trainingSessionRepo) Delete(ctx context.Context, id string) error {
	return pkgerrors.FromDB(r.db.WithContext(ctx).
		Where("session_id = ?", id).
		Delete(&model.TrainingSession{}).Error)
}
