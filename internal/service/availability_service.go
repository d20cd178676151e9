package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/dto"
	"github.com/savalagikadappa/infosys/internal/repository"
	"github.com/savalagikadappa/infosys/pkg/realtime"
)

// AvailabilityService 考官可用日期业务接口
type AvailabilityService interface {
	// Toggle 切换考官在某日的可用状态
	Toggle(ctx context.Context, examinerID, date string) (*dto.ToggleAvailabilityResponse, error)
	// ListDates 考官的可用日期（升序）
	ListDates(ctx context.Context, examinerID string) ([]string, error)
	// HasAnyAvailability 当日是否至少有一名考官可用
	HasAnyAvailability(ctx context.Context, date time.Time) (bool, error)
	// AvailableDates 至少一名考官未满额的日期（升序去重）；fresh=true 跳过缓存
	AvailableDates(ctx context.Context, fresh bool) ([]string, error)
	// Calendar 考官日历：可用日期与已分配考试
	Calendar(ctx context.Context, examinerID string) (*dto.ExaminerCalendarResponse, error)
}

type availabilityService struct {
	repo     *repository.Repository
	cache    AvailableDatesCache
	events   EventPublisher
	resolver identityResolver
	capacity int
	logger   *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(
	cfg *config.Config,
	repo *repository.Repository,
	cache AvailableDatesCache,
	events EventPublisher,
	logger *zap.Logger,
) AvailabilityService {
	if events == nil {
		events = noopPublisher{}
	}
	return &availabilityService{
		repo:     repo,
		cache:    cache,
		events:   events,
		resolver: identityResolver{repo: repo},
		capacity: cfg.Exam.ExaminerDailyCapacity,
		logger:   logger,
	}
}

func (s *availabilityService) Toggle(ctx context.Context, examinerID, date string) (*dto.ToggleAvailabilityResponse, error) {
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	// 与分配共用日期锁，分配过程中考官的可用状态不会被改变
	var available bool
	err = s.repo.Tx.WithDateLock(ctx, d, func(tx *repository.Repository) error {
		var err error
		available, err = tx.Availability.Toggle(ctx, examinerID, d)
		return err
	})
	if err != nil {
		s.logger.Error("切换考官可用状态失败", zap.String("examiner_id", examinerID), zap.Error(err))
		return nil, storeErr(err)
	}

	s.cache.Invalidate(ctx)
	s.events.Emit(ctx, realtime.EventAvailabilityUpdated)

	return &dto.ToggleAvailabilityResponse{Available: available, Date: FormatDate(d)}, nil
}

func (s *availabilityService) ListDates(ctx context.Context, examinerID string) ([]string, error) {
	list, err := s.repo.Availability.ListByExaminer(ctx, examinerID)
	if err != nil {
		s.logger.Error("查询考官可用日期失败", zap.Error(err))
		return nil, storeErr(err)
	}
	dates := make([]string, len(list))
	for i, a := range list {
		dates[i] = FormatDate(a.Date)
	}
	return dates, nil
}

func (s *availabilityService) HasAnyAvailability(ctx context.Context, date time.Time) (bool, error) {
	list, err := s.repo.Availability.ListByDate(ctx, NormalizeDate(date))
	if err != nil {
		return false, storeErr(err)
	}
	return len(list) > 0, nil
}

func (s *availabilityService) AvailableDates(ctx context.Context, fresh bool) ([]string, error) {
	if !fresh {
		if dates, ok := s.cache.Get(ctx); ok {
			return dates, nil
		}
	}

	open, err := s.repo.Availability.ListOpenDates(ctx, s.capacity)
	if err != nil {
		s.logger.Error("查询开放日期失败", zap.Error(err))
		return nil, storeErr(err)
	}

	seen := make(map[string]bool, len(open))
	dates := make([]string, 0, len(open))
	for _, d := range open {
		key := FormatDate(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, key)
	}

	s.cache.Set(ctx, dates)
	return dates, nil
}

func (s *availabilityService) Calendar(ctx context.Context, examinerID string) (*dto.ExaminerCalendarResponse, error) {
	dates, err := s.ListDates(ctx, examinerID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.repo.Allocation.ListByExaminer(ctx, examinerID)
	if err != nil {
		s.logger.Error("查询考官考试安排失败", zap.Error(err))
		return nil, storeErr(err)
	}
	exams, err := s.resolver.allocations(ctx, allocations)
	if err != nil {
		return nil, storeErr(err)
	}
	return &dto.ExaminerCalendarResponse{AvailableDates: dates, Exams: exams}, nil
}
