package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/savalagikadappa/infosys/internal/model"
)

// AvailabilityRepository 考官可用日期数据访问接口
type AvailabilityRepository interface {
	// Toggle 原子地切换 (examiner, date) 的可用状态，返回切换后的状态
	Toggle(ctx context.Context, examinerID string, date time.Time) (bool, error)
	Exists(ctx context.Context, examinerID string, date time.Time) (bool, error)
	ListByExaminer(ctx context.Context, examinerID string) ([]model.ExaminerAvailability, error)
	// ListByDate 按登记顺序（created_at, examiner_id）返回当日可用考官
	ListByDate(ctx context.Context, date time.Time) ([]model.ExaminerAvailability, error)
	ListRange(ctx context.Context, from, to time.Time) ([]model.ExaminerAvailability, error)
	// ListOpenDates 至少一名考官当日负载低于 capacity 的日期，升序去重
	ListOpenDates(ctx context.Context, capacity int) ([]time.Time, error)
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo 创建 AvailabilityRepository 实例
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) Toggle(ctx context.Context, examinerID string, date time.Time) (bool, error) {
	available := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("examiner_id = ? AND date = ?", examinerID, date).
			Delete(&model.ExaminerAvailability{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		available = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.ExaminerAvailability{ExaminerID: examinerID, Date: date}).Error
	})
	return available, err
}

func (r *availabilityRepo) Exists(ctx context.Context, examinerID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ExaminerAvailability{}).
		Where("examiner_id = ? AND date = ?", examinerID, date).
		Count(&count).Error
	return count > 0, err
}

func (r *availabilityRepo) ListByExaminer(ctx context.Context, examinerID string) ([]model.ExaminerAvailability, error) {
	var list []model.ExaminerAvailability
	err := r.db.WithContext(ctx).
		Where("examiner_id = ?", examinerID).
		Order("date ASC").
		Find(&list).Error
	return list, err
}

func (r *availabilityRepo) ListByDate(ctx context.Context, date time.Time) ([]model.ExaminerAvailability, error) {
	var list []model.ExaminerAvailability
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("created_at ASC, examiner_id ASC").
		Find(&list).Error
	return list, err
}

func (r *availabilityRepo) ListRange(ctx context.Context, from, to time.Time) ([]model.ExaminerAvailability, error) {
	var list []model.ExaminerAvailability
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC, created_at ASC, examiner_id ASC").
		Find(&list).Error
	return list, err
}

func (r *availabilityRepo) ListOpenDates(ctx context.Context, capacity int) ([]time.Time, error) {
	load := r.db.Model(&model.ExamAllocation{}).
		Select("examiner_id, date, COUNT(*) AS n").
		Group("examiner_id, date")

	var dates []time.Time
	err := r.db.WithContext(ctx).
		Table("examiner_availabilities AS a").
		Joins("LEFT JOIN (?) AS l ON l.examiner_id = a.examiner_id AND l.date = a.date", load).
		Where("COALESCE(l.n, 0) < ?", capacity).
		Distinct("a.date").
		Order("a.date ASC").
		Pluck("a.date", &dates).Error
	return dates, err
}
