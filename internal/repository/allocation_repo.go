package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/internal/model"
	pkgerrors "github.com/savalagikadappa/infosys/pkg/errors"
)

// 考试分配表唯一约束名
const (
	ConstraintAllocationCandidateSession = "uq_exam_allocations_candidate_session"
	ConstraintAllocationCandidateDate    = "uq_exam_allocations_candidate_date"
)

// AllocationRepository 考试分配数据访问接口
// 只允许新增与 allocated → completed 状态流转，不支持删除
type AllocationRepository interface {
	Create(ctx context.Context, a *model.ExamAllocation) error
	GetByID(ctx context.Context, id string) (*model.ExamAllocation, error)
	ExistsForCandidateSession(ctx context.Context, candidateID, sessionID string) (bool, error)
	ExistsForCandidateDate(ctx context.Context, candidateID string, date time.Time) (bool, error)
	ExistsForSession(ctx context.Context, sessionID string) (bool, error)
	// LoadByDate 当日各考官已分配场次数
	LoadByDate(ctx context.Context, date time.Time) (map[string]int, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]model.ExamAllocation, error)
	ListByExaminer(ctx context.Context, examinerID string) ([]model.ExamAllocation, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.ExamAllocation, error)
	ListRange(ctx context.Context, from, to time.Time) ([]model.ExamAllocation, error)
	UpdateStatus(ctx context.Context, a *model.ExamAllocation, status string) error
	// CompleteBefore 将 date 之前仍为 allocated 的记录标记为 completed
	CompleteBefore(ctx context.Context, date time.Time) (int64, error)
}

type allocationRepo struct {
	db *gorm.DB
}

// NewAllocationRepo 创建 AllocationRepository 实例
func NewAllocationRepo(db *gorm.DB) AllocationRepository {
	return &allocationRepo{db: db}
}

func (r *allocationRepo) Create(ctx context.Context, a *model.ExamAllocation) error {
	return pkgerrors.FromDB(r.db.WithContext(ctx).Create(a).Error)
}

func (r *allocationRepo) GetByID(ctx context.Context, id string) (*model.ExamAllocation, error) {
	var a model.ExamAllocation
	err := r.db.WithContext(ctx).Where("allocation_id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *allocationRepo) ExistsForCandidateSession(ctx context.Context, candidateID, sessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ExamAllocation{}).
		Where("candidate_id = ? AND session_id = ?", candidateID, sessionID).
		Count(&count).Error
	return count > 0, err
}

func (r *allocationRepo) ExistsForSession(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ExamAllocation{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count > 0, err
}

func (r *allocationRepo) ExistsForCandidateDate(ctx context.Context, candidateID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ExamAllocation{}).
		Where("candidate_id = ? AND date = ?", candidateID, date).
		Count(&count).Error
	return count > 0, err
}

func (r *allocationRepo) LoadByDate(ctx context.Context, date time.Time) (map[string]int, error) {
	var rows []struct {
		ExaminerID string
		N          int
	}
	err := r.db.WithContext(ctx).
		Model(&model.ExamAllocation{}).
		Select("examiner_id, COUNT(*) AS n").
		Where("date = ?", date).
		Group("examiner_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	load := make(map[string]int, len(rows))
	for _, row := range rows {
		load[row.ExaminerID] = row.N
	}
	return load, nil
}

func (r *allocationRepo) ListByCandidate(ctx context.Context, candidateID string) ([]model.ExamAllocation, error) {
	var list []model.ExamAllocation
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("date ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *allocationRepo) ListByExaminer(ctx context.Context, examinerID string) ([]model.ExamAllocation, error) {
	var list []model.ExamAllocation
	err := r.db.WithContext(ctx).
		Where("examiner_id = ?", examinerID).
		Order("date ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *allocationRepo) ListByDate(ctx context.Context, date time.Time) ([]model.ExamAllocation, error) {
	var list []model.ExamAllocation
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *allocationRepo) ListRange(ctx context.Context, from, to time.Time) ([]model.ExamAllocation, error) {
	var list []model.ExamAllocation
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *allocationRepo) UpdateStatus(ctx context.Context, a *model.ExamAllocation, status string) error {
	oldVersion := a.Version
	result := r.db.WithContext(ctx).
		Model(&model.ExamAllocation{}).
		Where("allocation_id = ? AND version = ?", a.AllocationID, oldVersion).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": gorm.Expr("NOW()"),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	a.Status = status
	a.Version = oldVersion + 1
	return nil
}

func (r *allocationRepo) CompleteBefore(ctx context.Context, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ExamAllocation{}).
		Where("date < ? AND status = ?", date, model.AllocationStatusAllocated).
		Updates(map[string]interface{}{
			"status":     model.AllocationStatusCompleted,
			"updated_at": gorm.Expr("NOW()"),
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}
