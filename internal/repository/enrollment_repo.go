package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/internal/model"
	pkgerrors "github.com/savalagikadappa/infosys/pkg/errors"
)

// 报名表唯一约束名
const (
	ConstraintEnrollmentSessionCandidate = "uq_enrollments_session_candidate"
	ConstraintEnrollmentCandidateDay     = "uq_enrollments_candidate_day"
)

// EnrollmentRepository 报名记录数据访问接口
// 报名记录只增不改
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	GetBySessionAndCandidate(ctx context.Context, sessionID, candidateID string) (*model.Enrollment, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]model.Enrollment, error)
	ListAll(ctx context.Context) ([]model.Enrollment, error)
	ExistsForDay(ctx context.Context, candidateID, dayOfWeek string) (bool, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return pkgerrors.FromDB(r.db.WithContext(ctx).Omit("Session").Create(enrollment).Error)
}

func (r *enrollmentRepo) GetBySessionAndCandidate(ctx context.Context, sessionID, candidateID string) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Session").
		Where("session_id = ? AND candidate_id = ?", sessionID, candidateID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *enrollmentRepo) ListByCandidate(ctx context.Context, candidateID string) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Session").
		Where("candidate_id = ?", candidateID).
		Order("enrolled_at ASC, enrollment_id ASC").
		Find(&list).Error
	return list, err
}

// ListAll 全部报名记录，供考官主动分配时筛选候选人
func (r *enrollmentRepo) ListAll(ctx context.Context) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Session").
		Order("enrolled_at ASC, candidate_id ASC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) ExistsForDay(ctx context.Context, candidateID, dayOfWeek string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("candidate_id = ? AND day_of_week = ?", candidateID, dayOfWeek).
		Count(&count).Error
	return count > 0, err
}
